// Package gpioout declares the single-output-pin collaborator spec.md names
// "the GPIO driver (one output pin with a toggle operation)".
package gpioout

// Pin is the one operation the gpio_toggle native needs.
type Pin interface {
	Toggle()
}
