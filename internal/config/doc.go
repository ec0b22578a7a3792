// Package config provides configuration structures and utilities for
// mdmirror. It defines the options controlling discovery scope and depth,
// conversion credentials, output, and reporting.
package config
