// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing the review dispatcher, the HTTP layer and the LLM backends to evolve
// independently of each other.
package core
