// Package testsupport holds fixtures shared by package tests: isolated
// configs, a scripted transform engine and a canned source inspector.
package testsupport
