// remote_debug.go - websocket JSON bridge to the machine debugger

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition68K
License: GPLv3 or later
*/

/*
remote_debug.go - Remote Debug Bridge

Serves the debugger verbs over a websocket as JSON request/response pairs so
external front-ends can drive the machine without the interactive monitor.
One verb executes at a time across all clients; a breakpoint hit is pushed to
every connected client as an unsolicited event.

Protocol, one JSON object per message:

	-> {"cmd":"regs"}
	<- {"ok":true, "registers":[{"name":"D0","value":0,"bits":32}, ...]}

	-> {"cmd":"read", "addr":1024, "count":16}
	<- {"ok":true, "data":"4e714e71..."}

	-> {"cmd":"step", "count":2}
	<- {"ok":true, "cycles":12, "pc":1032}

	<- {"ok":true, "event":"break", "addr":2048, "pc":2048}

Verbs: ping, regs, getreg, setreg, step, freeze, resume, read, write,
break, unbreak, breakpoints, disasm.
*/

package main

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const remoteDebugPath = "/debug"

var remoteUpgrader = websocket.Upgrader{
	// Local front-ends connect from file:// pages, which send no usable Origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

type remoteRequest struct {
	Cmd   string `json:"cmd"`
	Name  string `json:"name,omitempty"`
	Addr  uint64 `json:"addr,omitempty"`
	Value uint64 `json:"value,omitempty"`
	Count int    `json:"count,omitempty"`
	Data  string `json:"data,omitempty"` // hex-encoded bytes for write
}

type remoteRegister struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
	Bits  int    `json:"bits"`
}

type remoteDisasmLine struct {
	Addr     uint64 `json:"addr"`
	Bytes    string `json:"bytes"`
	Mnemonic string `json:"mnemonic"`
}

type remoteResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Event string `json:"event,omitempty"`

	CPU         string             `json:"cpu,omitempty"`
	Value       *uint64            `json:"value,omitempty"`
	PC          *uint64            `json:"pc,omitempty"`
	Cycles      *int               `json:"cycles,omitempty"`
	Data        string             `json:"data,omitempty"`
	Registers   []remoteRegister   `json:"registers,omitempty"`
	Breakpoints []uint64           `json:"breakpoints,omitempty"`
	Lines       []remoteDisasmLine `json:"lines,omitempty"`
}

// remoteClient wraps one websocket connection. The websocket permits a single
// writer, and break events race command replies, so every write goes through
// the client's own lock.
type remoteClient struct {
	conn *websocket.Conn
	wrMu sync.Mutex
}

func (c *remoteClient) send(resp *remoteResponse) error {
	c.wrMu.Lock()
	defer c.wrMu.Unlock()
	return c.conn.WriteJSON(resp)
}

// RemoteDebugServer exposes one CPU's debugger over a websocket endpoint.
type RemoteDebugServer struct {
	cpu DebuggableCPU

	// Serialises verb execution across clients.
	cmdMu sync.Mutex

	clMu    sync.Mutex
	clients map[*remoteClient]bool

	events chan BreakpointEvent
}

// NewRemoteDebugServer wires a server to the CPU and takes over its
// breakpoint channel. Run the interactive monitor or the bridge, not both.
func NewRemoteDebugServer(cpu DebuggableCPU) *RemoteDebugServer {
	srv := &RemoteDebugServer{
		cpu:     cpu,
		clients: make(map[*remoteClient]bool),
		events:  make(chan BreakpointEvent, 4),
	}
	cpu.SetBreakpointChannel(srv.events, 0)
	go srv.broadcastBreaks()
	return srv
}

// ListenAndServe blocks serving websocket clients on listenAddr.
func (srv *RemoteDebugServer) ListenAndServe(listenAddr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc(remoteDebugPath, srv.serveClient)
	logrus.Infof("remote debug listening on ws://%s%s", listenAddr, remoteDebugPath)
	return http.ListenAndServe(listenAddr, mux)
}

func (srv *RemoteDebugServer) serveClient(w http.ResponseWriter, r *http.Request) {
	conn, err := remoteUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("remote debug: upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	logrus.Infof("remote debug: client connected from %s", r.RemoteAddr)

	client := &remoteClient{conn: conn}
	srv.clMu.Lock()
	srv.clients[client] = true
	srv.clMu.Unlock()

	defer func() {
		srv.clMu.Lock()
		delete(srv.clients, client)
		srv.clMu.Unlock()
		conn.Close()
		logrus.Infof("remote debug: client %s disconnected", r.RemoteAddr)
	}()

	for {
		var req remoteRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.Warnf("remote debug: client %s: %v", r.RemoteAddr, err)
			}
			return
		}

		resp := srv.execute(&req)
		if err := client.send(resp); err != nil {
			return
		}
	}
}

// broadcastBreaks forwards breakpoint hits from the CPU to every client.
func (srv *RemoteDebugServer) broadcastBreaks() {
	for ev := range srv.events {
		pc := srv.cpu.GetPC()
		resp := &remoteResponse{
			OK:    true,
			Event: "break",
			PC:    &pc,
		}
		addr := ev.Address
		resp.Value = &addr

		srv.clMu.Lock()
		for client := range srv.clients {
			if err := client.send(resp); err != nil {
				client.conn.Close()
				delete(srv.clients, client)
			}
		}
		srv.clMu.Unlock()
	}
}

func remoteError(format string, args ...interface{}) *remoteResponse {
	return &remoteResponse{Error: fmt.Sprintf(format, args...)}
}

// execute runs one verb under the command lock.
func (srv *RemoteDebugServer) execute(req *remoteRequest) *remoteResponse {
	srv.cmdMu.Lock()
	defer srv.cmdMu.Unlock()

	cpu := srv.cpu
	switch req.Cmd {
	case "ping":
		return &remoteResponse{OK: true, CPU: cpu.CPUName()}

	case "regs":
		regs := cpu.GetRegisters()
		out := make([]remoteRegister, len(regs))
		for i, r := range regs {
			out[i] = remoteRegister{Name: r.Name, Value: r.Value, Bits: r.BitWidth}
		}
		return &remoteResponse{OK: true, Registers: out}

	case "getreg":
		val, ok := cpu.GetRegister(strings.ToUpper(req.Name))
		if !ok {
			return remoteError("unknown register %q", req.Name)
		}
		return &remoteResponse{OK: true, Value: &val}

	case "setreg":
		if !cpu.SetRegister(strings.ToUpper(req.Name), req.Value) {
			return remoteError("unknown register %q", req.Name)
		}
		return &remoteResponse{OK: true}

	case "step":
		count := req.Count
		if count <= 0 {
			count = 1
		}
		cycles := 0
		for i := 0; i < count; i++ {
			c := cpu.Step()
			if c == 0 {
				break
			}
			cycles += c
		}
		pc := cpu.GetPC()
		return &remoteResponse{OK: true, Cycles: &cycles, PC: &pc}

	case "freeze":
		cpu.Freeze()
		pc := cpu.GetPC()
		return &remoteResponse{OK: true, PC: &pc}

	case "resume":
		cpu.Resume()
		return &remoteResponse{OK: true}

	case "read":
		count := req.Count
		if count <= 0 {
			count = 16
		}
		if count > 0x10000 {
			return remoteError("read too large (max 64KB per request)")
		}
		data := cpu.ReadMemory(req.Addr, count)
		return &remoteResponse{OK: true, Data: hex.EncodeToString(data)}

	case "write":
		data, err := hex.DecodeString(req.Data)
		if err != nil {
			return remoteError("bad hex data: %v", err)
		}
		if len(data) == 0 {
			return remoteError("write needs data")
		}
		cpu.WriteMemory(req.Addr, data)
		return &remoteResponse{OK: true}

	case "break":
		if !cpu.SetBreakpoint(req.Addr) {
			return remoteError("breakpoint at $%X rejected", req.Addr)
		}
		return &remoteResponse{OK: true}

	case "unbreak":
		cpu.ClearBreakpoint(req.Addr)
		return &remoteResponse{OK: true}

	case "breakpoints":
		return &remoteResponse{OK: true, Breakpoints: cpu.ListBreakpoints()}

	case "disasm":
		addr := req.Addr
		if addr == 0 {
			addr = cpu.GetPC()
		}
		count := req.Count
		if count <= 0 {
			count = 8
		}
		if count > 256 {
			count = 256
		}
		lines := cpu.Disassemble(addr, count)
		out := make([]remoteDisasmLine, len(lines))
		for i, l := range lines {
			out[i] = remoteDisasmLine{Addr: l.Address, Bytes: l.HexBytes, Mnemonic: l.Mnemonic}
		}
		return &remoteResponse{OK: true, Lines: out}

	default:
		return remoteError("unknown command %q", req.Cmd)
	}
}
