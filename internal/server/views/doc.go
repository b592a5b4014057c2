// Package views turns a session snapshot into page models.
//
// The builders are pure: same snapshot in, same page out. Templates in the
// web package only format what these models contain, so the page logic is
// tested here without any HTTP.
package views
