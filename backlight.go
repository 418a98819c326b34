package main

import (
	"log"
	"os"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

const backlightSysfs = "/sys/class/backlight/backlight/brightness"

// backlight drives the panel light, either through a GPIO pin or, when
// the pin is not registered on this board, through the sysfs brightness
// file.
type backlight struct {
	mu  sync.Mutex
	pin gpio.PinIO
	on  bool
}

func newBacklight(pinName string) *backlight {
	b := &backlight{on: true}
	if pin := gpioreg.ByName(pinName); pin != nil {
		b.pin = pin
	} else {
		log.Printf("backlight: pin %s not registered, using sysfs", pinName)
	}
	return b
}

func (b *backlight) set(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if on == b.on {
		return
	}
	b.on = on

	if b.pin != nil {
		lvl := gpio.Low
		if on {
			lvl = gpio.High
		}
		if err := b.pin.Out(lvl); err != nil {
			log.Printf("backlight pin error: %v", err)
		}
		return
	}

	// sysfs fallback keeps a faint glow instead of a hard off, so a tap
	// in the dark still lands somewhere visible
	val := "16"
	if on {
		val = "255"
	}
	if err := os.WriteFile(backlightSysfs, []byte(val), 0644); err != nil {
		log.Printf("backlight write error: %v", err)
	}
}
