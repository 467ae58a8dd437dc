package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide explains how to copy the session cookies out of
// a logged-in browser
func ShowCookieExtractionGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"📚 BILIBILI COOKIE GUIDE",
		rule,
		"",
		"bilifollow reads your following list with the cookies of a browser",
		"session that is already logged in. Nothing is sent anywhere else.",
		"",
		"🌐 STEP 1: open https://www.bilibili.com and make sure you are logged in",
		"",
		"🔧 STEP 2: open Developer Tools (F12, or Cmd+Option+I on macOS)",
		"",
		"🍪 STEP 3: Application (Chrome/Edge) or Storage (Firefox) → Cookies →",
		"   https://www.bilibili.com, then copy these values:",
		"",
		"   SESSDATA     required, the login session",
		"   bili_jct     optional, CSRF token",
		"   DedeUserID   optional, your numeric user id",
		"",
		"💡 Copy only the value, without quotes or the trailing semicolon.",
		"   Cookies expire; run `bilifollow auth login` again when exports",
		"   start failing with a login error.",
		"",
		"⚠️  SESSDATA grants full access to your account. Never share it.",
		rule,
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// ShowQuickExtractGuide is the one-line reminder shown before prompting
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "🍪 F12 → Application → Cookies → bilibili.com: copy SESSDATA (and optionally bili_jct, DedeUserID)")
	fmt.Fprintln(w, "   Type 'help' for detailed instructions")
}
