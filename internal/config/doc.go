// Package config compiles xchainkeys configuration text into a binding tree.
//
// A configuration file holds one statement per line. Empty lines and
// lines starting with '#' are ignored. Global options set the defaults
// of the feedback popup and of every chain:
//
//	timeout 3000
//	delay 1000
//	feedback on
//	font fixed
//	foreground black
//	background white
//
// Every other line is a binding:
//
//	keyspec [keyspec ...] [:action ["name"] [argument ...]]
//
// For example:
//
//	C-t :enter timeout=5000 abort=manual
//	C-t c :exec xterm
//	C-t plus :group "volume" amixer set Master 5%+
//	C-t minus :group "volume" amixer set Master 5%-
//	C-t r :load
//
// Problems on a single line never fail the compile. They are reported as
// Diagnostics and the line is skipped. The only fatal error is an
// unreadable file, reported as *ReadError.
package config
