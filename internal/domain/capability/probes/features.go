package probes

import "github.com/GriffinCanCode/hostkit/internal/domain/capability"

// Features detects optional platform APIs.
func Features(ins Inspector) capability.Probe {
	return capability.Probe{Name: "features", Run: func(rec *capability.Record) error {
		return boolChecks(ins, rec, []check{
			{"features.webGL", defined("WebGLRenderingContext")},
			{"features.webGL2", defined("WebGL2RenderingContext")},
			{"features.worker", defined("Worker")},
			{"features.webSocket", defined("WebSocket")},
			{"features.localStorage", defined("localStorage")},
			{"features.indexedDB", defined("indexedDB")},
			{"features.fetch", defined("fetch")},
			{"features.gamepad", defined("Gamepad")},
			{"features.css", defined("CSS")},
			{"features.canvas", "typeof document !== 'undefined' && document.querySelector('canvas') !== null"},
		})
	}}
}

// Input detects touch, pointer and mouse input.
func Input(ins Inspector) capability.Probe {
	return capability.Probe{Name: "input", Run: func(rec *capability.Record) error {
		touchPoints, err := evalNumber(ins, "typeof navigator !== 'undefined' ? navigator.maxTouchPoints || 0 : 0")
		if err != nil {
			return err
		}
		err = boolChecks(ins, rec, []check{
			{"input.touch", "(typeof window !== 'undefined' && 'ontouchstart' in window) || (typeof navigator !== 'undefined' && navigator.maxTouchPoints > 0)"},
			{"input.pointer", defined("PointerEvent")},
		})
		if err != nil {
			return err
		}
		rec.SetNumber("input.maxTouchPoints", touchPoints)
		rec.SetBool("input.mouse", rec.Bool("os.desktop"))
		return nil
	}}
}

// Device records display and hardware figures.
func Device(ins Inspector) capability.Probe {
	return capability.Probe{Name: "device", Run: func(rec *capability.Record) error {
		numbers := []check{
			{"device.pixelRatio", "typeof window !== 'undefined' && window.devicePixelRatio || 1"},
			{"device.screenWidth", "typeof screen !== 'undefined' ? screen.width : 0"},
			{"device.screenHeight", "typeof screen !== 'undefined' ? screen.height : 0"},
			{"device.cores", "typeof navigator !== 'undefined' ? navigator.hardwareConcurrency || 1 : 1"},
		}
		for _, c := range numbers {
			v, err := evalNumber(ins, c.script)
			if err != nil {
				return err
			}
			rec.SetNumber(c.name, v)
		}

		lang, err := evalString(ins, "typeof navigator !== 'undefined' ? navigator.language : ''")
		if err != nil {
			return err
		}
		rec.SetString("device.language", lang)
		return nil
	}}
}
