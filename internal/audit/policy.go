package audit

import (
	"path/filepath"
	"strings"
)

// resolveSymlinkBestEffort resolves path through any symlinks in its
// ancestry. If the path (or a parent) does not exist yet, it falls back to
// the cleaned, absolute form of the input rather than failing — a
// not-yet-created file under a protected prefix must still be caught.
func resolveSymlinkBestEffort(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	dir := filepath.Dir(abs)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(resolved, filepath.Base(abs))
	}
	return abs
}

// dangerousPatterns are substrings that flag a shell invocation as
// destructive: recursive deletes, raw-device writes, fork bombs,
// pipe-to-shell, obfuscated decoders, eval, and reverse-shell shapes.
var dangerousPatterns = []string{
	"rm -rf /",
	"rm -rf --no-preserve-root",
	"rm -fr /",
	"> /dev/sda",
	"dd if=/dev/zero of=/dev/sda",
	"dd if=/dev/random of=/dev/sda",
	":(){ :|:& };:",
	"| sh",
	"| bash",
	"curl | sh",
	"curl | bash",
	"wget | sh",
	"wget | bash",
	"base64 -d | sh",
	"base64 -d | bash",
	"base64 --decode | sh",
	"eval(",
	"eval `",
	"mkfs.",
	"/dev/tcp/",
	"nc -e /bin/sh",
	"nc -e /bin/bash",
	"chmod -R 777 /",
	"chown -R",
}

// protectedPathPrefixes are resolved (symlink-followed) path prefixes a
// tool is never allowed to write under.
var protectedPathPrefixes = []string{
	"/etc/",
	"/usr/",
	"/bin/",
	"/sbin/",
	"/boot/",
	"/dev/",
	"/proc/",
	"/sys/",
	"/var/log/",
	"/root/",
}

// matchDangerousCommand returns the first dangerous pattern found as a
// substring of command, or "" if none match.
func matchDangerousCommand(command string) string {
	lower := strings.ToLower(command)
	for _, p := range dangerousPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p
		}
	}
	return ""
}

// matchProtectedPath resolves path through symlinks (falling back to the
// cleaned input if it does not yet exist) and reports whether the real path
// falls under a reserved system prefix, along with the matched prefix.
func matchProtectedPath(path string) (string, bool) {
	resolved := resolveSymlinkBestEffort(path)
	resolved = filepath.Clean(resolved)
	for _, prefix := range protectedPathPrefixes {
		if strings.HasPrefix(resolved, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// blockDecision is the outcome of a pre-tool-use policy check.
type blockDecision struct {
	blocked bool
	reason  string
	pattern string
}

// checkToolPolicy inspects a tool invocation and decides whether to block
// it. toolName is not consulted: a non-empty command is checked against
// dangerousPatterns, and a non-empty writePath against
// protectedPathPrefixes, whatever the tool.
func checkToolPolicy(toolName string, command string, writePath string) blockDecision {
	if command != "" {
		if pattern := matchDangerousCommand(command); pattern != "" {
			return blockDecision{
				blocked: true,
				reason:  "command matches a blocked destructive pattern",
				pattern: pattern,
			}
		}
	}
	if writePath != "" {
		if prefix, blocked := matchProtectedPath(writePath); blocked {
			return blockDecision{
				blocked: true,
				reason:  "write path resolves under a protected system directory",
				pattern: prefix,
			}
		}
	}
	return blockDecision{}
}
