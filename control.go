package negotio

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"strings"
)

// addCommand is the one recognized control-protocol command shape.
type addCommand struct {
	Action string       `json:"action"`
	Policy PolicyConfig `json:"policy"`
}

// ControlListener accepts newline-terminated JSON commands over a Unix
// domain socket. Any pre-existing file at path is removed before bind,
// mirroring the original daemon's unlink-before-bind convention.
type ControlListener struct {
	path     string
	listener net.Listener
	logger   Logger
	onAdd    func(PolicyConfig) error
}

// NewControlListener binds a Unix socket at path. onAdd is invoked for
// every well-formed {"action":"add",...} command.
func NewControlListener(path string, logger Logger, onAdd func(PolicyConfig) error) (*ControlListener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, newErrSocket("unlink control socket", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, newErrSocket("bind control socket", err)
	}

	return &ControlListener{
		path:     path,
		listener: ln,
		logger:   ensureLogger(logger),
		onAdd:    onAdd,
	}, nil
}

// Run accepts connections until ctx is canceled, handling each on its
// own goroutine — the idiomatic Go analogue of the original's
// epoll-driven accept loop.
func (c *ControlListener) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = c.listener.Close()
	}()

	for {
		conn, err := c.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				c.logger.Error("control.Accept", err)
				return
			}
		}
		go c.handleConn(conn)
	}
}

// handleConn reads a single newline-terminated command and closes the
// connection — one command per connection, matching the original
// daemon's read-handle-close cycle rather than keeping the fd open for
// a stream of commands.
func (c *ControlListener) handleConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return
	}
	c.handleLine(strings.TrimRight(line, "\r\n"))
}

func (c *ControlListener) handleLine(line string) {
	c.logger.Debugf("control command: %s", line)

	var cmd addCommand
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		c.logger.Error("control.handleLine", newErrInvalidParam("malformed JSON command"))
		return
	}

	switch cmd.Action {
	case "add":
		if err := c.onAdd(cmd.Policy); err != nil {
			c.logger.Error("control.add", err)
		}
	default:
		c.logger.Infof("unknown control action %q, ignored", cmd.Action)
	}
}

// Close releases the listener and removes the socket file.
func (c *ControlListener) Close() error {
	err := c.listener.Close()
	_ = os.Remove(c.path)
	return err
}
