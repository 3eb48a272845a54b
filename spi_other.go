//go:build !linux

package sharpmem

// OpenSPI is not available on this platform; use OpenGPIO.
func OpenSPI(_ *SPIConfig) (Conn, error) {
	return nil, ErrNotSupported
}
