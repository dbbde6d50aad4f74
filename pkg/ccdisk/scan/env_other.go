//go:build !unix

package scan

// osVersion is unknown on platforms without uname.
func osVersion() string {
	return ""
}
