package auth

import (
	"strings"

	"github.com/mileusna/useragent"
)

// DescribeDevice turns a User-Agent header into something like
// "Firefox 120.0 on Linux". It returns "" when nothing useful is known.
func DescribeDevice(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}

	ua := useragent.Parse(userAgent)

	browser := ua.Name
	if browser != "" && ua.Version != "" {
		browser += " " + ua.Version
	}

	platform := ua.OS
	if platform != "" && ua.OSVersion != "" {
		platform += " " + ua.OSVersion
	}

	var parts []string
	if browser != "" {
		parts = append(parts, browser)
	}
	if platform != "" {
		parts = append(parts, "on "+platform)
	}
	if ua.Bot {
		parts = append(parts, "(bot)")
	}

	if len(parts) == 0 {
		return userAgent
	}
	return strings.Join(parts, " ")
}
