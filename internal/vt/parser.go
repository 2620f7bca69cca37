package vt

import "unicode/utf8"

const (
	maxParams        = 16
	maxParamValue    = 65535
	maxIntermediates = 2
	maxOSCBytes      = 1024
	maxOSCFields     = 16
)

// ParserState is the recognition state of the escape-sequence parser.
type ParserState uint8

const (
	StateGround ParserState = iota
	StateEscape
	StateEscapeIntermediate
	StateCSIEntry
	StateCSIParam
	StateCSIIntermediate
	StateCSIIgnore
	StateOSCString
	StateDCSEntry
	StateDCSParam
	StateDCSIntermediate
	StateDCSPassthrough
	StateDCSIgnore
	StateSOSPMAPCString
)

var stateNames = [...]string{
	StateGround:             "ground",
	StateEscape:             "escape",
	StateEscapeIntermediate: "escape-intermediate",
	StateCSIEntry:           "csi-entry",
	StateCSIParam:           "csi-param",
	StateCSIIntermediate:    "csi-intermediate",
	StateCSIIgnore:          "csi-ignore",
	StateOSCString:          "osc-string",
	StateDCSEntry:           "dcs-entry",
	StateDCSParam:           "dcs-param",
	StateDCSIntermediate:    "dcs-intermediate",
	StateDCSPassthrough:     "dcs-passthrough",
	StateDCSIgnore:          "dcs-ignore",
	StateSOSPMAPCString:     "sos-pm-apc-string",
}

func (s ParserState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// EventKind tags the variant carried by an Event.
type EventKind uint8

const (
	EventPrint EventKind = iota + 1
	EventExecute
	EventCSI
	EventESC
	EventOSC
	EventHook
	EventPut
	EventUnhook
)

var eventNames = [...]string{
	EventPrint:   "print",
	EventExecute: "execute",
	EventCSI:     "csi",
	EventESC:     "esc",
	EventOSC:     "osc",
	EventHook:    "hook",
	EventPut:     "put",
	EventUnhook:  "unhook",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) && eventNames[k] != "" {
		return eventNames[k]
	}
	return "unknown"
}

// Event is one dispatch produced by the parser. Which fields are set
// depends on Kind:
//
//	Print    Rune
//	Execute  Byte (the control byte)
//	CSI      Params, Intermediates, Byte (final)
//	ESC      Intermediates, Byte (final)
//	OSC      Fields, BellTerminated
//	Hook     Params, Intermediates, Byte (final)
//	Put      Byte
//
// Slices point into parser storage and are only valid until the next
// call to Advance.
type Event struct {
	Kind           EventKind
	Rune           rune
	Byte           byte
	Params         []int
	Intermediates  []byte
	Fields         [][]byte
	BellTerminated bool
}

// Param returns parameter i, or def when it is missing or zero.
func (e Event) Param(i, def int) int {
	if i >= len(e.Params) || e.Params[i] == 0 {
		return def
	}
	return e.Params[i]
}

// Private returns the private marker ('<', '=', '>' or '?') that opened
// a CSI sequence, or 0.
func (e Event) Private() byte {
	if len(e.Intermediates) > 0 && e.Intermediates[0] >= 0x3c && e.Intermediates[0] <= 0x3f {
		return e.Intermediates[0]
	}
	return 0
}

// Parser classifies a byte stream into dispatch events. It never touches
// a screen; feed its events to State.Apply. The zero value is ready to use.
type Parser struct {
	state ParserState

	params    [maxParams]int
	nparams   int
	curParam  int
	haveParam bool

	intermediates  [maxIntermediates]byte
	nintermediates int

	osc       [maxOSCBytes]byte
	nosc      int
	oscFields [maxOSCFields][]byte

	utf8buf  [utf8.UTFMax]byte
	nutf8    int
	utf8need int

	// set when ESC ended a string so the following '\' is taken as ST
	stringEnded bool

	out  [2]Event
	nout int
}

// NewParser returns a parser in the ground state.
func NewParser() *Parser {
	return &Parser{}
}

// State reports the current recognition state.
func (p *Parser) State() ParserState {
	return p.state
}

// Reset drops any partial sequence and returns to ground.
func (p *Parser) Reset() {
	p.clear()
	p.utf8need, p.nutf8 = 0, 0
	p.stringEnded = false
	p.state = StateGround
}

// Advance consumes one byte and returns the events it completes, in
// order. The returned slice is reused by the next call.
func (p *Parser) Advance(b byte) []Event {
	p.nout = 0
	p.advance(b)
	return p.out[:p.nout]
}

func (p *Parser) emit(ev Event) {
	if p.nout < len(p.out) {
		p.out[p.nout] = ev
		p.nout++
	}
}

func (p *Parser) advance(b byte) {
	if p.utf8need > 0 {
		if b&0xc0 == 0x80 {
			p.utf8buf[p.nutf8] = b
			p.nutf8++
			if p.nutf8 == p.utf8need {
				r, _ := utf8.DecodeRune(p.utf8buf[:p.nutf8])
				p.utf8need, p.nutf8 = 0, 0
				p.emit(Event{Kind: EventPrint, Rune: r})
			}
			return
		}
		// truncated sequence: replace it and handle b on its own
		p.utf8need, p.nutf8 = 0, 0
		p.emit(Event{Kind: EventPrint, Rune: utf8.RuneError})
	}

	switch b {
	case CAN, SUB:
		if p.state == StateDCSPassthrough {
			p.emit(Event{Kind: EventUnhook})
		}
		p.clear()
		p.state = StateGround
		p.emit(Event{Kind: EventExecute, Byte: b})
		return
	case ESC:
		p.enterEscape()
		return
	}

	switch p.state {
	case StateGround:
		p.ground(b)
	case StateEscape:
		p.escape(b)
	case StateEscapeIntermediate:
		p.escapeIntermediate(b)
	case StateCSIEntry, StateCSIParam, StateCSIIntermediate:
		p.csi(b)
	case StateCSIIgnore:
		p.csiIgnore(b)
	case StateOSCString:
		p.oscString(b)
	case StateDCSEntry, StateDCSParam, StateDCSIntermediate:
		p.dcs(b)
	case StateDCSPassthrough:
		if b != DEL {
			p.emit(Event{Kind: EventPut, Byte: b})
		}
	case StateDCSIgnore, StateSOSPMAPCString:
		// swallowed until ST, CAN or SUB
	}
}

func (p *Parser) ground(b byte) {
	switch {
	case b < 0x20:
		p.emit(Event{Kind: EventExecute, Byte: b})
	case b < DEL:
		p.emit(Event{Kind: EventPrint, Rune: rune(b)})
	case b == DEL:
	default:
		p.startUTF8(b)
	}
}

func (p *Parser) startUTF8(b byte) {
	var need int
	switch {
	case b >= 0xc2 && b <= 0xdf:
		need = 2
	case b >= 0xe0 && b <= 0xef:
		need = 3
	case b >= 0xf0 && b <= 0xf4:
		need = 4
	default:
		p.emit(Event{Kind: EventPrint, Rune: utf8.RuneError})
		return
	}
	p.utf8buf[0] = b
	p.nutf8 = 1
	p.utf8need = need
}

func (p *Parser) enterEscape() {
	p.stringEnded = false
	switch p.state {
	case StateOSCString:
		p.dispatchOSC(false)
		p.stringEnded = true
	case StateDCSPassthrough:
		p.emit(Event{Kind: EventUnhook})
		p.stringEnded = true
	case StateDCSEntry, StateDCSParam, StateDCSIntermediate, StateDCSIgnore, StateSOSPMAPCString:
		p.stringEnded = true
	}
	p.clear()
	p.state = StateEscape
}

func (p *Parser) escape(b byte) {
	ended := p.stringEnded
	p.stringEnded = false
	if ended && b == '\\' {
		p.state = StateGround
		return
	}

	switch {
	case b < 0x20:
		p.emit(Event{Kind: EventExecute, Byte: b})
	case b <= 0x2f:
		p.collect(b)
		p.state = StateEscapeIntermediate
	case b == '[':
		p.state = StateCSIEntry
	case b == ']':
		p.state = StateOSCString
	case b == 'P':
		p.state = StateDCSEntry
	case b == 'X' || b == '^' || b == '_':
		p.state = StateSOSPMAPCString
	case b < DEL:
		p.dispatchESC(b)
	case b == DEL:
	default:
		p.clear()
		p.state = StateGround
	}
}

func (p *Parser) escapeIntermediate(b byte) {
	switch {
	case b < 0x20:
		p.emit(Event{Kind: EventExecute, Byte: b})
	case b <= 0x2f:
		p.collect(b)
	case b < DEL:
		p.dispatchESC(b)
	case b == DEL:
	default:
		p.clear()
		p.state = StateGround
	}
}

// csi handles the entry, param and intermediate states, which differ
// only in what they accept after the first byte.
func (p *Parser) csi(b byte) {
	switch {
	case b < 0x20:
		p.emit(Event{Kind: EventExecute, Byte: b})
	case b <= 0x2f:
		p.collect(b)
		p.state = StateCSIIntermediate
	case b <= 0x3b:
		if p.state == StateCSIIntermediate {
			p.state = StateCSIIgnore
			return
		}
		p.param(b)
		p.state = StateCSIParam
	case b <= 0x3f:
		if p.state != StateCSIEntry {
			p.state = StateCSIIgnore
			return
		}
		p.collect(b)
		p.state = StateCSIParam
	case b < DEL:
		p.finishParams()
		p.emit(Event{
			Kind:          EventCSI,
			Params:        p.params[:p.nparams],
			Intermediates: p.intermediates[:p.nintermediates],
			Byte:          b,
		})
		p.clear()
		p.state = StateGround
	case b == DEL:
	default:
		p.clear()
		p.state = StateGround
	}
}

func (p *Parser) csiIgnore(b byte) {
	switch {
	case b < 0x20:
		p.emit(Event{Kind: EventExecute, Byte: b})
	case b <= 0x3f, b == DEL:
	default:
		// a final byte ends the sequence, anything above 0x7f is garbage;
		// either way nothing is dispatched
		p.clear()
		p.state = StateGround
	}
}

func (p *Parser) oscString(b byte) {
	switch {
	case b == BEL:
		p.dispatchOSC(true)
		p.clear()
		p.state = StateGround
	case b < 0x20:
	default:
		if p.nosc < maxOSCBytes {
			p.osc[p.nosc] = b
			p.nosc++
		}
	}
}

func (p *Parser) dcs(b byte) {
	switch {
	case b < 0x20, b == DEL:
	case b <= 0x2f:
		p.collect(b)
		p.state = StateDCSIntermediate
	case b <= 0x3b:
		if p.state == StateDCSIntermediate {
			p.state = StateDCSIgnore
			return
		}
		p.param(b)
		p.state = StateDCSParam
	case b <= 0x3f:
		if p.state != StateDCSEntry {
			p.state = StateDCSIgnore
			return
		}
		p.collect(b)
		p.state = StateDCSParam
	case b < DEL:
		p.finishParams()
		p.emit(Event{
			Kind:          EventHook,
			Params:        p.params[:p.nparams],
			Intermediates: p.intermediates[:p.nintermediates],
			Byte:          b,
		})
		p.clear()
		p.state = StateDCSPassthrough
	default:
		p.clear()
		p.state = StateGround
	}
}

func (p *Parser) dispatchESC(final byte) {
	p.emit(Event{
		Kind:          EventESC,
		Intermediates: p.intermediates[:p.nintermediates],
		Byte:          final,
	})
	p.clear()
	p.state = StateGround
}

func (p *Parser) dispatchOSC(bell bool) {
	data := p.osc[:p.nosc]
	n, start := 0, 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != ';' {
			continue
		}
		if n == maxOSCFields-1 {
			// the last field keeps the remainder, separators included
			p.oscFields[n] = data[start:]
			n++
			break
		}
		p.oscFields[n] = data[start:i]
		n++
		start = i + 1
	}
	p.emit(Event{Kind: EventOSC, Fields: p.oscFields[:n], BellTerminated: bell})
}

func (p *Parser) collect(b byte) {
	if p.nintermediates < maxIntermediates {
		p.intermediates[p.nintermediates] = b
		p.nintermediates++
	}
}

// param accumulates digits and separators. ':' is treated like ';'.
func (p *Parser) param(b byte) {
	p.haveParam = true
	if b == ';' || b == ':' {
		p.pushParam()
		return
	}
	v := p.curParam*10 + int(b-'0')
	if v > maxParamValue {
		v = maxParamValue
	}
	p.curParam = v
}

func (p *Parser) pushParam() {
	if p.nparams < maxParams {
		p.params[p.nparams] = p.curParam
		p.nparams++
	}
	p.curParam = 0
}

func (p *Parser) finishParams() {
	if p.haveParam {
		p.pushParam()
	}
}

func (p *Parser) clear() {
	p.nparams = 0
	p.curParam = 0
	p.haveParam = false
	p.nintermediates = 0
	p.nosc = 0
}
