// Package model fits and evaluates prediction models over engineered feature
// sets. Three families are supported behind one Spec: a stateless momentum
// rule, least-squares linear regression, and a small seeded neural regressor.
// Every family is deterministic for a given Spec and input.
package model
