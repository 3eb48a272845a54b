package sharpmem

// Mode bits of the first byte of every transaction, sent MSB first.
const (
	cmdWrite = 0x80
	vcomBit  = 0x40
	cmdClear = 0x20
)

// Row addresses are one byte, starting at 1.
const maxRows = 0xff

func (d *Display) toggleVCOM() {
	d.vcom ^= vcomBit
}

// Clear blanks the panel with the fast clear command and sets every bit of the frame buffer, so
// the buffer matches the panel without a Refresh.
func (d *Display) Clear() error {
	vcom := d.vcom

	d.c.Select(true)
	d.c.WriteMSB(cmdClear | d.vcom)
	d.c.WriteLSB(0x00)
	d.toggleVCOM()
	d.c.Select(false)

	d.fb.Clear()

	if debug {
		d.log.Debug("sharpmem: clear", "vcom", vcom != 0)
	}
	return d.c.Err()
}

// Refresh sends the whole frame buffer to the panel.
func (d *Display) Refresh() error {
	var (
		vcom = d.vcom
		rows = d.fb.Size().Y
	)

	d.c.Select(true)
	d.c.WriteMSB(cmdWrite | d.vcom)
	d.toggleVCOM()
	for row := 0; row < rows; row++ {
		d.c.WriteLSB(byte(row + 1))
		for _, v := range d.fb.Row(row) {
			d.c.WriteLSB(v)
		}
		d.c.WriteLSB(0x00)
	}
	d.c.WriteMSB(0x00)
	d.c.Select(false)

	if debug {
		d.log.Debug("sharpmem: refresh", "rows", rows, "vcom", vcom != 0)
	}
	return d.c.Err()
}

// Hold inverts VCOM without touching the image.
func (d *Display) Hold() error {
	vcom := d.vcom

	d.c.Select(true)
	d.c.WriteMSB(d.vcom)
	d.c.WriteLSB(0x00)
	d.toggleVCOM()
	d.c.Select(false)

	if debug {
		d.log.Debug("sharpmem: hold", "vcom", vcom != 0)
	}
	return d.c.Err()
}
