package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	stdnet "net"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/lifecycle"
	gonet "github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/world"
)

// stationmirror is a read-only follower client: it connects to a
// stationd, authenticates, and maintains a local mirror of the visible
// world. Removals are applied with the same pool-or-destroy disposition
// the server decided, so the local object set tracks the authority's.

var protocolMagic = [4]byte{'S', 'T', 'N', 'D'}

func main() {
	addr := flag.String("addr", "127.0.0.1:5433", "stationd address")
	operator := flag.String("operator", "", "operator account name")
	password := flag.String("password", "", "operator password")
	focusX := flag.Int("x", 0, "initial view focus X")
	focusY := flag.Int("y", 0, "initial view focus Y")
	deck := flag.Int("deck", 0, "initial view deck")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *operator == "" || *password == "" {
		log.Fatal("both -operator and -password are required")
	}

	if err := run(*addr, *operator, *password, int32(*focusX), int32(*focusY), int16(*deck), log); err != nil {
		log.Fatal("mirror stopped", zap.Error(err))
	}
}

func run(addr, operator, password string, focusX, focusY int32, deck int16, log *zap.Logger) error {
	conn, err := stdnet.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	cipher, err := readHello(conn)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	log.Info("connected", zap.String("addr", addr))

	c := &client{conn: conn, cipher: cipher, log: log}

	if err := c.exchangeVersion(); err != nil {
		return fmt.Errorf("version exchange: %w", err)
	}
	if err := c.login(operator, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	viewRange, serverObjects, err := c.enter(focusX, focusY, deck)
	if err != nil {
		return fmt.Errorf("enter: %w", err)
	}
	log.Info("observing",
		zap.Int32("view_range", viewRange),
		zap.Int32("server_objects", serverObjects),
	)

	c.world = world.NewState(viewRange)
	c.pool = world.NewPoolRegistry(0)
	c.mirror = lifecycle.NewMirror(c.world, c.pool, log)

	return c.mirrorLoop()
}

// readHello consumes the plaintext hello packet and returns the seeded
// cipher. Everything after the hello is scrambled.
// Wire: [2B LE length=11][1B opcode][4B LE seed][4B magic].
func readHello(conn stdnet.Conn) (*gonet.Cipher, error) {
	var buf [11]byte
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if binary.LittleEndian.Uint16(buf[0:2]) != 11 || buf[2] != packet.S_OPCODE_HELLO {
		return nil, errors.New("not a stationd hello")
	}
	if !bytes.Equal(buf[7:11], protocolMagic[:]) {
		return nil, errors.New("bad protocol magic")
	}

	seed := int32(binary.LittleEndian.Uint32(buf[3:7]))
	return gonet.NewCipher(seed), nil
}

type client struct {
	conn   stdnet.Conn
	cipher *gonet.Cipher
	log    *zap.Logger

	world  *world.State
	pool   *world.PoolRegistry
	mirror *lifecycle.Mirror

	puts      int
	pooled    int
	destroyed int
	unknown   int
}

// send encrypts and frames one packet. Single-goroutine: the cipher key
// stream advances per frame and must see them in order.
func (c *client) send(data []byte) error {
	encrypted := make([]byte, len(data))
	copy(encrypted, data)
	c.cipher.Encrypt(encrypted)

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return gonet.WriteFrame(c.conn, encrypted)
}

// recv reads and decrypts one frame.
func (c *client) recv(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
	} else {
		c.conn.SetReadDeadline(time.Time{})
	}
	payload, err := gonet.ReadFrame(c.conn)
	if err != nil {
		return nil, err
	}
	return c.cipher.Decrypt(payload), nil
}

// expect reads frames until one with the wanted opcode arrives.
func (c *client) expect(opcode byte) (*packet.Reader, error) {
	for {
		data, err := c.recv(10 * time.Second)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		switch data[0] {
		case opcode:
			return packet.NewReader(data), nil
		case packet.S_OPCODE_DISCONNECT:
			r := packet.NewReader(data)
			return nil, fmt.Errorf("server disconnect (reason %d)", r.ReadC())
		default:
			c.log.Debug("skipping packet while waiting",
				zap.Uint8("got", data[0]),
				zap.Uint8("want", opcode),
			)
		}
	}
}

func (c *client) exchangeVersion() error {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_VERSION)
	w.WriteD(3) // protocol version
	if err := c.send(w.Bytes()); err != nil {
		return err
	}

	r, err := c.expect(packet.S_OPCODE_VERSION_OK)
	if err != nil {
		return err
	}
	serverID := r.ReadC()
	serverVersion := r.ReadD()
	c.log.Info("version accepted",
		zap.Uint8("server_id", serverID),
		zap.Int32("server_version", serverVersion),
	)
	return nil
}

func (c *client) login(operator, password string) error {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_LOGIN)
	w.WriteS(operator)
	w.WriteS(password)
	if err := c.send(w.Bytes()); err != nil {
		return err
	}

	r, err := c.expect(packet.S_OPCODE_LOGIN_RESULT)
	if err != nil {
		return err
	}
	code := r.ReadC()
	token := r.ReadS()
	if code != 0 {
		return fmt.Errorf("rejected with code %d", code)
	}
	c.log.Info("logged in", zap.String("operator", operator), zap.String("token", token))
	return nil
}

func (c *client) enter(focusX, focusY int32, deck int16) (viewRange, serverObjects int32, err error) {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_ENTER)
	w.WriteD(focusX)
	w.WriteD(focusY)
	w.WriteH(uint16(deck))
	if err := c.send(w.Bytes()); err != nil {
		return 0, 0, err
	}

	r, err := c.expect(packet.S_OPCODE_ENTER_OK)
	if err != nil {
		return 0, 0, err
	}
	return r.ReadD(), r.ReadD(), nil
}

// mirrorLoop applies replicated lifecycle traffic until the server
// disconnects. Read timeouts double as the keepalive and summary cadence.
func (c *client) mirrorLoop() error {
	nonce := int32(0)
	for {
		data, err := c.recv(5 * time.Second)
		if err != nil {
			var netErr stdnet.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				nonce++
				w := packet.NewWriterWithOpcode(packet.C_OPCODE_PING)
				w.WriteD(nonce)
				if err := c.send(w.Bytes()); err != nil {
					return fmt.Errorf("keepalive: %w", err)
				}
				c.logSummary()
				continue
			}
			if errors.Is(err, io.EOF) {
				c.log.Info("server closed the connection")
				return nil
			}
			return err
		}
		if len(data) == 0 {
			continue
		}

		r := packet.NewReader(data)
		switch data[0] {
		case packet.S_OPCODE_PUT_OBJECT:
			c.applyPut(r)
		case packet.S_OPCODE_REMOVE_OBJECT:
			c.applyRemove(r.ReadD(), true)
		case packet.S_OPCODE_DESTROY_OBJECT:
			c.applyRemove(r.ReadD(), false)
		case packet.S_OPCODE_PONG:
			// keepalive echo
		case packet.S_OPCODE_DISCONNECT:
			c.log.Info("server disconnect", zap.Uint8("reason", r.ReadC()))
			return nil
		default:
			c.log.Debug("unhandled opcode", zap.Uint8("op", data[0]))
		}
	}
}

// applyPut realizes one announced object locally.
// Wire: [D id][D template][D x][D y][H deck][D gfx][S name][C flags].
func (c *client) applyPut(r *packet.Reader) {
	info := lifecycle.PutInfo{
		ObjectID:   r.ReadD(),
		TemplateID: r.ReadD(),
		X:          r.ReadD(),
		Y:          r.ReadD(),
		Deck:       int16(r.ReadH()),
		GfxID:      r.ReadD(),
		Name:       r.ReadS(),
	}
	flags := r.ReadC()
	info.Pushable = flags&0x01 != 0
	info.PoolEligible = flags&0x02 != 0

	c.mirror.ApplyFollowerPut(info)
	c.puts++
}

func (c *client) applyRemove(id int32, pooled bool) {
	switch c.mirror.ApplyRemove(id, pooled) {
	case lifecycle.OutcomePooled:
		c.pooled++
	case lifecycle.OutcomeDestroyed:
		c.destroyed++
	default:
		c.unknown++
	}
}

func (c *client) logSummary() {
	c.log.Info("mirror state",
		zap.Int("objects", c.world.Count()),
		zap.Int("pool", c.pool.TotalSize()),
		zap.Int("puts", c.puts),
		zap.Int("pooled", c.pooled),
		zap.Int("destroyed", c.destroyed),
		zap.Int("unknown_removals", c.unknown),
	)
}
