// Package funfacts loads the fun fact collection served by the fact command
// and the optional daily channel post.
package funfacts
