package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/vladimirvolkov/pursuit/server/internal/middleware"
)

const writeTimeout = 5 * time.Second

type Conn struct {
	ws      *websocket.Conn
	codec   Codec
	sendCh  chan []byte
	done    chan struct{}
	once    sync.Once
	ID      string
	IP      string
	limiter *middleware.IPRateLimiter
}

func NewConn(ws *websocket.Conn, id, ip string, codec Codec, limiter *middleware.IPRateLimiter) *Conn {
	return &Conn{
		ws:      ws,
		codec:   codec,
		sendCh:  make(chan []byte, 64),
		done:    make(chan struct{}),
		ID:      id,
		IP:      ip,
		limiter: limiter,
	}
}

func (c *Conn) Codec() Codec { return c.codec }

// Send queues msg for the write loop. A full queue drops the message.
func (c *Conn) Send(msg Message) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		log.Printf("conn %s: encode error: %v", c.ID, err)
		return
	}
	select {
	case c.sendCh <- data:
	default:
		log.Printf("conn %s: send buffer full, dropping message 0x%02x", c.ID, msg.Type)
	}
}

func (c *Conn) ReadLoop(ctx context.Context) <-chan Message {
	ch := make(chan Message, 64)
	go func() {
		defer close(ch)
		for {
			_, data, err := c.ws.Read(ctx)
			if err != nil {
				log.Printf("conn %s: read error: %v", c.ID, err)
				c.Close()
				return
			}
			if c.limiter != nil && !c.limiter.MessageAllowed(c.IP) {
				continue
			}
			msg, err := c.codec.Decode(data)
			if err != nil {
				log.Printf("conn %s: decode error: %v", c.ID, err)
				continue
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (c *Conn) WriteLoop(ctx context.Context) {
	for {
		select {
		case data := <-c.sendCh:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, c.codec.Frame(), data)
			cancel()
			if err != nil {
				log.Printf("conn %s: write error: %v", c.ID, err)
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) Close() {
	c.CloseWith(websocket.StatusNormalClosure, "")
}

// CloseWith closes the socket once with the given status.
func (c *Conn) CloseWith(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(code, reason)
	})
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}
