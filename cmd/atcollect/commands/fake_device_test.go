package commands

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"github.com/toitlang/atcollect/cmd/atcollect/at"
)

// fakeDevice answers AT commands like a module with echo enabled. Commands
// without an entry in replies get "ERROR" as reply line.
type fakeDevice struct {
	mu       sync.Mutex
	replies  map[string]string
	echoes   map[string]string
	written  bytes.Buffer
	pending  bytes.Buffer
	sent     []string
	closed   bool
	resets   int
	timeouts []time.Duration
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		replies: map[string]string{
			"AT+VER=?":    "AT+VER=1.3.2",
			"AT+APPEUI=?": "AT+APPEUI=0000000000000001",
			"AT+DEVEUI=?": "AT+DEVEUI=70B3D57ED0051234",
			"AT+APPKEY=?": "AT+APPKEY=2B7E151628AED2A6ABF7158809CF4F3C",
		},
		echoes: map[string]string{},
	}
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.written.Write(p)
	for {
		line, err := d.written.ReadString('\n')
		if err != nil {
			// Keep the incomplete command for the next write.
			rest := line
			d.written.Reset()
			d.written.WriteString(rest)
			return len(p), nil
		}
		d.handle(strings.TrimSuffix(line, at.LineEnd))
	}
}

func (d *fakeDevice) handle(cmd string) {
	d.sent = append(d.sent, cmd)
	echo := cmd + at.LineEnd
	if e, ok := d.echoes[cmd]; ok {
		echo = e
	}
	d.pending.WriteString(echo)
	if cmd == "ATE" {
		d.pending.WriteString(at.Terminator)
		return
	}
	reply, ok := d.replies[cmd]
	if !ok {
		reply = "ERROR"
	}
	d.pending.WriteString(reply + at.LineEnd + at.Terminator)
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, at.ErrClosed
	}
	if d.pending.Len() == 0 {
		return 0, nil
	}
	return d.pending.Read(p)
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) SetReadTimeout(t time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timeouts = append(d.timeouts, t)
	return nil
}

func (d *fakeDevice) ResetInputBuffer() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
	d.pending.Reset()
	return nil
}

func (d *fakeDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
