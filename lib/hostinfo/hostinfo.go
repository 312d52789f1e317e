// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostinfo

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Info is the host identity for a report header.
type Info struct {
	Hostname string
	Uname    string
}

// Probe returns the current host's identity. It never fails: a field
// that cannot be read is left empty, and a header with no uname is still
// a valid header.
func Probe() Info {
	info := Info{}
	info.Hostname, _ = os.Hostname()

	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err == nil {
		info.Uname = FormatUname(
			unix.ByteSliceToString(utsname.Sysname[:]),
			unix.ByteSliceToString(utsname.Nodename[:]),
			unix.ByteSliceToString(utsname.Release[:]),
			unix.ByteSliceToString(utsname.Version[:]),
			unix.ByteSliceToString(utsname.Machine[:]),
		)
	}
	return info
}

// FormatUname joins uname fields the way `uname -a` orders them
// (sysname, nodename, release, version, machine), skipping empty ones.
func FormatUname(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, " ")
}
