package negotio

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlListenerAddCommand(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "negotio.sock")

	var received []PolicyConfig
	ln, err := NewControlListener(socketPath, nil, func(cfg PolicyConfig) error {
		received = append(received, cfg)
		return nil
	})
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ln.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprintf(conn, `{"action":"add","policy":{"policy_id":1,"remote_ip":"127.0.0.1","remote_port":9000}}`+"\n")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.Len(t, received, 1)
	assert.EqualValues(t, 1, received[0].PolicyID)
}

func TestControlListenerClosesAfterFirstCommand(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "negotio.sock")

	var received []PolicyConfig
	ln, err := NewControlListener(socketPath, nil, func(cfg PolicyConfig) error {
		received = append(received, cfg)
		return nil
	})
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ln.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprintf(conn, `{"action":"add","policy":{"policy_id":1,"remote_ip":"127.0.0.1","remote_port":9000}}`+"\n")
	require.NoError(t, err)

	// A second command on the same connection must be rejected: the
	// server closes the connection after handling the first one.
	_, writeErr := fmt.Fprintf(conn, `{"action":"add","policy":{"policy_id":2,"remote_ip":"127.0.0.1","remote_port":9000}}`+"\n")
	if writeErr == nil {
		buf := make([]byte, 1)
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, readErr := conn.Read(buf)
		assert.Error(t, readErr, "connection should be closed by the server after one command")
	}

	time.Sleep(50 * time.Millisecond)
	require.Len(t, received, 1, "only the first command on the connection must be delivered")
	assert.EqualValues(t, 1, received[0].PolicyID)
}

func TestControlListenerUnlinksExistingSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "negotio.sock")
	f, err := os.Create(socketPath)
	require.NoError(t, err)
	f.Close()

	ln, err := NewControlListener(socketPath, nil, func(PolicyConfig) error { return nil })
	require.NoError(t, err)
	defer ln.Close()
}

func TestControlListenerIgnoresUnknownAction(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "negotio.sock")

	called := false
	ln, err := NewControlListener(socketPath, nil, func(PolicyConfig) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ln.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprintf(conn, `{"action":"remove","policy_id":1}`+"\n")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, called)
}
