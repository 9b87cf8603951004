// Package port implements the external collaborators spec.md §1 names
// but leaves unspecified ("the filesystem and network ports... is not
// covered") and SPEC_FULL §6.3 supplies concretely: a port is a
// KindPort context whose dispatcher is a Conn backend keyed by a
// scheme word (file, tcp, ws, sql). port-open/port-read/port-write/
// port-close are the four core operations; everything backend-specific
// — how a spec value is parsed, what a read produces — lives in this
// package's per-scheme Conn implementations, not in the natives
// themselves.
//
// Grounded on the teacher's DBManager/NetworkModule connection-registry
// idiom (internal/database/db_manager.go, internal/network/network.go):
// a mutex-guarded map from a connection ID to live backend state,
// rather than stashing the Go-level handle inside the context value
// itself (ctx.Context has no field meant for that; KindFrame's
// Running/Action slots are reserved for the evaluator, and reusing them
// for a Conn would blur what they document). A Port value only ever
// carries its scheme and its registry ID.
package port

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/concurrency"
	"glyph/internal/ctx"
	"glyph/internal/evalerr"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

// Conn is what every port backend implements: a blocking read that
// produces one value, a blocking write that consumes one, and a close.
// pool/tbl are threaded into Read because a sql backend's row becomes a
// freshly-built KindObject context, which needs both to allocate.
type Conn interface {
	Read(pool *memory.Pool, tbl *symbol.Table) (cell.Cell, error)
	Write(pool *memory.Pool, v cell.Cell) (int, error)
	Close() error
}

type opener func(spec cell.Cell) (Conn, error)

var backends = map[string]opener{
	"file": openFile,
	"tcp":  openTCP,
	"ws":   openWS,
	"sql":  openSQL,
}

// fields interns this package's own fixed field-name vocabulary
// ("scheme", "id") the same way internal/evalerr does: these keys only
// ever need to compare equal to themselves inside this package's own
// Get calls, never against a caller's symbol.Table.
var fields = symbol.New()

var (
	symScheme = fields.Intern("scheme")
	symID     = fields.Intern("id")
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Conn{}
	nextID     int64
)

func register(c Conn) string {
	id := strconv.FormatInt(atomic.AddInt64(&nextID, 1), 10)
	registryMu.Lock()
	registry[id] = c
	registryMu.Unlock()
	return id
}

func lookup(id string) (Conn, bool) {
	registryMu.RLock()
	c, ok := registry[id]
	registryMu.RUnlock()
	return c, ok
}

func unregister(id string) {
	registryMu.Lock()
	delete(registry, id)
	registryMu.Unlock()
}

// CloseAll closes every port still open in the registry concurrently,
// bounded by deadline, and clears the registry regardless of the
// outcome — a process shutdown or test teardown calls this instead of
// walking ports one at a time. It is the one caller of
// internal/concurrency.CloseAll; that package exists because this
// registry, unlike a single port-close, can hold an unbounded number
// of live connections that should not be torn down sequentially.
func CloseAll(ctx context.Context, deadline time.Duration) error {
	registryMu.Lock()
	closers := make([]concurrency.Closer, 0, len(registry))
	for _, c := range registry {
		closers = append(closers, c)
	}
	registry = map[string]Conn{}
	registryMu.Unlock()

	return concurrency.CloseAll(ctx, deadline, closers)
}

func portCtx(c cell.Cell) (*ctx.Context, bool) {
	if c.Kind != cell.KindPort {
		return nil, false
	}
	return &ctx.Context{Varlist: c.AsStub()}, true
}

func portID(c cell.Cell) (string, bool) {
	pc, ok := portCtx(c)
	if !ok {
		return "", false
	}
	v, ok := pc.Get(symID)
	if !ok {
		return "", false
	}
	return textOf(v), ok
}

func textOf(c cell.Cell) string {
	if c.Kind != cell.KindText {
		return ""
	}
	return string(c.AsStub().Dynamic.Bytes())
}

func textCell(s string) cell.Cell {
	t := cell.NewText(len(s))
	t.AsStub().Dynamic.AppendBytes([]byte(s))
	return t
}

// RegisterNatives binds port-open/port-read/port-write/port-close into
// sea, the same registration shape internal/action.RegisterNatives and
// internal/action.RegisterControl use (a local def/arg closure over
// pool/tbl/sea).
func RegisterNatives(pool *memory.Pool, tbl *symbol.Table, sea *bind.Sea) {
	def := func(name string, params []action.Param, d action.Dispatcher) {
		a := action.NewAction(pool, &action.Paramlist{Params: params}, name, d)
		sea.Set(tbl.Intern(name), a.Cell())
	}
	arg := func(name string) action.Param {
		return action.Param{Name: tbl.Intern(name), Class: action.ClassNormal}
	}
	quoted := func(name string) action.Param {
		return action.Param{Name: tbl.Intern(name), Class: action.ClassQuoted}
	}

	def("port-open", []action.Param{quoted("scheme"), arg("spec")}, func(f *ctx.Context) action.Bounce {
		schemeCell, _ := f.Get(f.KeyAt(1))
		specCell, _ := f.Get(f.KeyAt(2))
		if schemeCell.Kind != cell.KindWord {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.InvalidType, "port-open: scheme must be a word"))
		}
		scheme := schemeCell.Symbol().String()
		open, ok := backends[scheme]
		if !ok {
			return action.ThrownBounce(evalerr.RaiseNewf(pool, evalerr.NoPortAction, "port-open: unknown scheme %q", scheme))
		}
		conn, err := open(specCell)
		if err != nil {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.NoPortAction, err.Error()))
		}
		id := register(conn)
		p := ctx.New(pool, ctx.KindPort, 2)
		p.Append(pool, symScheme, cell.Word(cell.KindWord, tbl.Intern(scheme)))
		p.Append(pool, symID, textCell(id))
		return action.ValueBounce(p.Archetype())
	})

	def("port-read", []action.Param{arg("port")}, func(f *ctx.Context) action.Bounce {
		p, _ := f.Get(f.KeyAt(1))
		id, ok := portID(p)
		if !ok {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.InvalidType, "port-read: not a port"))
		}
		conn, ok := lookup(id)
		if !ok {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.NativeUnloaded, "port-read: port is closed"))
		}
		v, err := conn.Read(pool, tbl)
		if err != nil {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.NoPortAction, err.Error()))
		}
		return action.ValueBounce(v)
	})

	def("port-write", []action.Param{arg("port"), arg("value")}, func(f *ctx.Context) action.Bounce {
		p, _ := f.Get(f.KeyAt(1))
		v, _ := f.Get(f.KeyAt(2))
		id, ok := portID(p)
		if !ok {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.InvalidType, "port-write: not a port"))
		}
		conn, ok := lookup(id)
		if !ok {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.NativeUnloaded, "port-write: port is closed"))
		}
		n, err := conn.Write(pool, v)
		if err != nil {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.NoPortAction, err.Error()))
		}
		return action.ValueBounce(cell.Integer(int64(n)))
	})

	def("port-close", []action.Param{arg("port")}, func(f *ctx.Context) action.Bounce {
		p, _ := f.Get(f.KeyAt(1))
		id, ok := portID(p)
		if !ok {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.InvalidType, "port-close: not a port"))
		}
		conn, ok := lookup(id)
		if !ok {
			return action.ValueBounce(cell.Ghost())
		}
		unregister(id)
		if err := conn.Close(); err != nil {
			return action.ThrownBounce(evalerr.RaiseNew(pool, evalerr.NoPortAction, err.Error()))
		}
		return action.ValueBounce(cell.Ghost())
	})
}

// --- file backend ---

// fileConn's spec is a path, optionally prefixed with "+" to open for
// append instead of read (spec.md leaves the port spec format to the
// backend; this mirrors the teacher's own convention of a one-character
// mode flag ahead of the DSN in DBManager.Connect's dbType argument).
type fileConn struct {
	f *os.File
	r *bufio.Reader
}

func openFile(spec cell.Cell) (Conn, error) {
	path := textOf(spec)
	write := strings.HasPrefix(path, "+")
	if write {
		path = path[1:]
	}
	var f *os.File
	var err error
	if write {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}
	return &fileConn{f: f, r: bufio.NewReader(f)}, nil
}

func (c *fileConn) Read(pool *memory.Pool, tbl *symbol.Table) (cell.Cell, error) {
	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return cell.Null(), nil
	}
	return textCell(strings.TrimRight(line, "\n")), nil
}

func (c *fileConn) Write(pool *memory.Pool, v cell.Cell) (int, error) {
	return c.f.Write([]byte(cellString(v) + "\n"))
}

func (c *fileConn) Close() error { return c.f.Close() }

// --- tcp backend ---

type tcpConn struct {
	conn net.Conn
	r    *bufio.Reader
}

func openTCP(spec cell.Cell) (Conn, error) {
	addr := textOf(spec)
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &tcpConn{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (c *tcpConn) Read(pool *memory.Pool, tbl *symbol.Table) (cell.Cell, error) {
	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return cell.Null(), nil
	}
	return textCell(strings.TrimRight(line, "\n")), nil
}

func (c *tcpConn) Write(pool *memory.Pool, v cell.Cell) (int, error) {
	return c.conn.Write([]byte(cellString(v) + "\n"))
}

func (c *tcpConn) Close() error { return c.conn.Close() }

// --- ws backend ---

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func openWS(spec cell.Cell) (Conn, error) {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.Dial(textOf(spec), nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) Read(pool *memory.Pool, tbl *symbol.Table) (cell.Cell, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return cell.Cell{}, err
	}
	return textCell(string(data)), nil
}

func (c *wsConn) Write(pool *memory.Pool, v cell.Cell) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data := []byte(cellString(v))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (c *wsConn) Close() error { return c.conn.Close() }

// --- sql backend ---

// sqlConn wraps one query's result cursor: each Read pulls the next row
// as a KindObject context keyed by column name, and Write executes its
// argument as a statement rather than reading further rows. spec is a
// "driver|dsn|query" triple (spec.md leaves the exact spec format to
// the backend; SPEC_FULL §6.3 names `sql` as a scheme without
// prescribing its spec shape).
type sqlConn struct {
	db   *sql.DB
	rows *sql.Rows
	cols []string
}

func openSQL(spec cell.Cell) (Conn, error) {
	parts := strings.SplitN(textOf(spec), "|", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("port: sql spec must be \"driver|dsn|query\"")
	}
	driverName, dsn, query := parts[0], parts[1], parts[2]
	switch driverName {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("port: unsupported sql driver %q", driverName)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(query)
	if err != nil {
		db.Close()
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		db.Close()
		return nil, err
	}
	return &sqlConn{db: db, rows: rows, cols: cols}, nil
}

func (c *sqlConn) Read(pool *memory.Pool, tbl *symbol.Table) (cell.Cell, error) {
	if !c.rows.Next() {
		return cell.Null(), c.rows.Err()
	}
	vals := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return cell.Cell{}, err
	}
	obj := ctx.New(pool, ctx.KindObject, len(c.cols))
	for i, col := range c.cols {
		obj.Append(pool, tbl.Intern(col), textCell(fmt.Sprint(vals[i])))
	}
	return obj.Archetype(), nil
}

func (c *sqlConn) Write(pool *memory.Pool, v cell.Cell) (int, error) {
	res, err := c.db.Exec(cellString(v))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (c *sqlConn) Close() error {
	c.rows.Close()
	return c.db.Close()
}

// cellString renders v for a Write call: a text cell contributes its
// raw bytes, anything else falls back to its mold/display form so
// `port-write p 42` doesn't require the caller to stringify first.
func cellString(v cell.Cell) string {
	if v.Kind == cell.KindText {
		return textOf(v)
	}
	return v.String()
}
