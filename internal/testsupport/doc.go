// Package testsupport provides shared builders for tests: a scripted remote
// lister, a validated single-source config, and a throwaway state store.
package testsupport
