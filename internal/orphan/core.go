package orphan

import (
	"fmt"
	"regexp"
)

// defaultCorePatterns match packages that make up the base system. They are
// never reported as orphans even when nothing manual depends on them.
var defaultCorePatterns = []string{
	// Kernel, boot and firmware
	`^linux-`,
	`^grub`,
	`^shim-signed`,
	`^firmware-`,
	`^initramfs-`,

	// Essential runtime
	`^libc6`,
	`^base-`,
	`^bash$`,
	`^coreutils$`,
	`^dpkg$`,
	`^apt$`,
	`^init$`,
	`^init-system-helpers$`,
	`^systemd`,
	`^sudo$`,

	// Distribution metapackages
	`^ubuntu-`,
	`^debian-`,

	// System data
	`^locales`,
	`^tzdata$`,
	`^ca-certificates$`,
}

// CorePatterns is an ordered list of compiled core-system patterns.
type CorePatterns []*regexp.Regexp

// DefaultCorePatterns returns the built-in core-system patterns.
func DefaultCorePatterns() CorePatterns {
	patterns := make(CorePatterns, 0, len(defaultCorePatterns))
	for _, expr := range defaultCorePatterns {
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return patterns
}

// CompilePatterns compiles extra patterns and appends them to base.
func CompilePatterns(base CorePatterns, exprs []string) (CorePatterns, error) {
	out := append(CorePatterns(nil), base...)
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid core pattern %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Match reports whether name matches any pattern. Architecture qualifiers
// are ignored.
func (c CorePatterns) Match(name string) bool {
	name = stripArch(name)
	for _, re := range c {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
