package probes

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
)

var (
	chromeVersion  = regexp.MustCompile(`(?:Chrome|CriOS)/(\d+)`)
	firefoxVersion = regexp.MustCompile(`(?:Firefox|FxiOS)/(\d+)`)
	safariVersion  = regexp.MustCompile(`Version/(\d+)`)
	edgeVersion    = regexp.MustCompile(`Edg(?:e|A|iOS)?/(\d+)`)
)

func majorVersion(re *regexp.Regexp, ua string) float64 {
	m := re.FindStringSubmatch(ua)
	if m == nil {
		return 0
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return float64(v)
}

// OS detects the operating system family from the navigator.
func OS(ins Inspector) capability.Probe {
	return capability.Probe{Name: "os", Run: func(rec *capability.Record) error {
		ua, err := evalString(ins, "typeof navigator !== 'undefined' ? navigator.userAgent : ''")
		if err != nil {
			return err
		}
		platform, err := evalString(ins, "typeof navigator !== 'undefined' ? navigator.platform : ''")
		if err != nil {
			return err
		}
		touchPoints, err := evalNumber(ins, "typeof navigator !== 'undefined' ? navigator.maxTouchPoints : 0")
		if err != nil {
			return err
		}
		cordova, err := evalBool(ins, defined("cordova"))
		if err != nil {
			return err
		}

		android := strings.Contains(ua, "Android")
		windowsPhone := strings.Contains(ua, "Windows Phone")
		iOS := !android && (strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad") || strings.Contains(ua, "iPod"))
		macOS := !iOS && strings.Contains(ua, "Mac OS")
		// iPadOS reports itself as a Mac with a touch screen
		if macOS && touchPoints > 1 {
			iOS, macOS = true, false
		}
		windows := !windowsPhone && (strings.Contains(ua, "Windows") || strings.HasPrefix(platform, "Win"))
		chromeOS := strings.Contains(ua, "CrOS")
		linux := !android && !chromeOS && strings.Contains(ua, "Linux")

		rec.SetBool("os.android", android)
		rec.SetBool("os.iOS", iOS)
		rec.SetBool("os.macOS", macOS)
		rec.SetBool("os.windows", windows)
		rec.SetBool("os.windowsPhone", windowsPhone)
		rec.SetBool("os.chromeOS", chromeOS)
		rec.SetBool("os.linux", linux)
		rec.SetBool("os.cordova", cordova)
		rec.SetBool("os.desktop", !android && !iOS && !windowsPhone && (windows || macOS || linux || chromeOS))
		return nil
	}}
}

// Browser identifies the browser and its major version.
func Browser(ins Inspector) capability.Probe {
	return capability.Probe{Name: "browser", Run: func(rec *capability.Record) error {
		ua, err := evalString(ins, "typeof navigator !== 'undefined' ? navigator.userAgent : ''")
		if err != nil {
			return err
		}

		var name string
		switch {
		case edgeVersion.MatchString(ua):
			name = "edge"
			rec.SetNumber("browser.edgeVersion", majorVersion(edgeVersion, ua))
		case strings.Contains(ua, "OPR/") || strings.Contains(ua, "Opera"):
			name = "opera"
		case chromeVersion.MatchString(ua):
			name = "chrome"
			rec.SetNumber("browser.chromeVersion", majorVersion(chromeVersion, ua))
		case firefoxVersion.MatchString(ua):
			name = "firefox"
			rec.SetNumber("browser.firefoxVersion", majorVersion(firefoxVersion, ua))
		case strings.Contains(ua, "Safari") && !rec.Bool("os.android"):
			name = "safari"
			rec.SetNumber("browser.safariVersion", majorVersion(safariVersion, ua))
		case strings.Contains(ua, "Trident/") || strings.Contains(ua, "MSIE"):
			name = "ie"
		}

		for _, b := range []string{"chrome", "edge", "firefox", "ie", "opera", "safari"} {
			rec.SetBool("browser."+b, b == name)
		}
		rec.SetBool("browser.webApp", strings.Contains(ua, "; wv)") || rec.Bool("os.cordova"))
		rec.SetString("browser.name", name)
		return nil
	}}
}
