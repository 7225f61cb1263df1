// Package discovery finds book files under the configured source folders.
package discovery
