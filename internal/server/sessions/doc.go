// Package sessions holds per-visitor state in memory.
//
// Every visitor gets its own Session with a private locker table built from
// the same seed, so two visitors never see each other's assignments. The
// Store hands sessions out by id and forgets them after an idle timeout;
// nothing survives a restart.
package sessions
