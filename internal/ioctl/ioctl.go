//go:build linux

// Package ioctl encodes and issues Linux ioctl requests.
package ioctl

import (
	"fmt"
	"reflect"
	"syscall"
)

// Mode is the IOCTL direction.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command to be sent over ioctl.
type Command uintptr

// Mode returns the data direction encoded in c.
func (c Command) Mode() Mode {
	return Mode(c >> 30 & 0x03)
}

// Size returns the argument size encoded in c.
func (c Command) Size() uint16 {
	return uint16(c >> 16 & 0x3fff)
}

func (c Command) String() string {
	var str string
	if c.Mode()&Write > 0 {
		str += " write"
	}
	if c.Mode()&Read > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) 0x%04x", str, c.Size(), uintptr(c&0xffff))
}

// Do executes the ioctl call with ptr, which must be a pointer or nil, as argument.
func Do(fd uintptr, command Command, ptr any) error {
	var p uintptr
	if ptr != nil {
		p = reflect.ValueOf(ptr).Pointer()
	}

	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, uintptr(command), p); errno != 0 {
		return fmt.Errorf("%s failed: %w", command, errno)
	}
	return nil
}

// Encode an ioctl command.
func Encode(mode Mode, size uint16, cmd uintptr) Command {
	return Command(mode)<<30 | Command(size&0x3fff)<<16 | Command(cmd&0xffff)
}

// Pointer encodes cmd with the size of the value ref points to.
func Pointer(mode Mode, ref any, cmd uintptr) Command {
	size := uint16(reflect.TypeOf(ref).Elem().Size())
	return Encode(mode, size, cmd)
}
