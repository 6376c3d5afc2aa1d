// Package rxframer turns a raw UART byte stream into either complete command
// lines or a fixed-length binary payload, mirroring the RX interrupt handler
// of spec.md §4.2.
//
// It is structured the same way as the teacher's gpioirq.Worker: a fast,
// never-blocking ingest path (standing in for the ISR) mutates a small piece
// of state behind a mutex (standing in for irq_lock/irq_unlock), and posts
// results onto channels a consumer goroutine (COMM) drains. Unlike
// gpioirq.Worker there is no separate dispatcher goroutine for the RX state
// itself — COMM is that consumer, reading from Lines() and from the channel
// returned by BeginBinary.
package rxframer

import "sync"

// LineCap is the line accumulator's capacity, including room for the
// terminator the protocol strips before queuing.
const LineCap = 256

// LineQueueDepth is how many complete, unread lines may be buffered.
const LineQueueDepth = 4

type mode int

const (
	modeLine mode = iota
	modeBinary
)

// Framer accumulates RX bytes into lines or a binary payload.
type Framer struct {
	mu sync.Mutex // stands in for interrupt masking

	mode    mode
	lineBuf [LineCap]byte
	linePos int

	binDst      []byte
	binExpected int
	binReceived int

	lines   chan []byte
	binDone chan struct{}
}

// New returns a Framer starting in LINE mode.
func New() *Framer {
	return &Framer{
		mode:    modeLine,
		lines:   make(chan []byte, LineQueueDepth),
		binDone: make(chan struct{}, 1),
	}
}

// Lines is the queue of complete command lines, newline/CR already stripped.
func (f *Framer) Lines() <-chan []byte { return f.lines }

// Ingest feeds bytes just read off the UART into the framer. It must never
// block — this stands in for code running with RX interrupts active.
func (f *Framer) Ingest(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range data {
		if f.mode == modeLine {
			f.ingestLineByte(b)
		} else {
			f.ingestBinaryByte(b)
		}
	}
}

func (f *Framer) ingestLineByte(b byte) {
	if (b == '\n' || b == '\r') && f.linePos > 0 {
		line := make([]byte, f.linePos)
		copy(line, f.lineBuf[:f.linePos])
		f.linePos = 0
		select {
		case f.lines <- line:
		default:
			// Queue is full: the newly completed line is discarded, the
			// sender (the ISR) must not block. Matches the underlying
			// RTOS message-queue put-with-no-wait semantics this models.
		}
		return
	}
	if b == '\n' || b == '\r' {
		return // isolated terminator with nothing accumulated: ignored
	}
	if f.linePos < LineCap-1 {
		f.lineBuf[f.linePos] = b
		f.linePos++
	}
	// else: buffer full, byte dropped; line is truncated awaiting a terminator
}

func (f *Framer) ingestBinaryByte(b byte) {
	if f.binDst == nil || f.binReceived >= f.binExpected {
		return // excess bytes mid-transition: discarded
	}
	f.binDst[f.binReceived] = b
	f.binReceived++
	if f.binReceived == f.binExpected {
		f.mode = modeLine
		select {
		case f.binDone <- struct{}{}:
		default:
		}
	}
}

// BeginBinary switches the framer to BINARY mode, targeting dst, and returns
// the channel that fires exactly once len(dst) bytes have arrived. Only COMM
// may call this, and only while holding whatever external serialization
// keeps it from racing a concurrent LOAD (the module slot's single-writer
// discipline in internal/agent already guarantees that).
func (f *Framer) BeginBinary(dst []byte) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.binDone: // drain any stale signal from a prior aborted transfer
	default:
	}
	f.binDst = dst
	f.binExpected = len(dst)
	f.binReceived = 0
	f.mode = modeBinary
	return f.binDone
}

// AbortBinary forces the framer back to LINE mode and forgets the
// destination buffer, used on upload timeout. Partial bytes already written
// to dst are left as-is; the caller owns and frees dst.
func (f *Framer) AbortBinary() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = modeLine
	f.binDst = nil
	f.binExpected = 0
	f.binReceived = 0
}

// Received reports how many binary bytes have arrived so far. Intended for
// diagnostics only; the source of truth for completion is the BeginBinary
// channel.
func (f *Framer) Received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binReceived
}
