package resolver

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	. "vemoji/common"
)

var gwLog = NewLogger("GATEWAY")

var gw *Gateway

// Gateway pushes resolution and preload events to connected UI clients.
// Server-to-client only; inbound frames are read solely to notice a close.
type Gateway struct {
	connections      map[string]*GatewayConnection
	connectionsMutex sync.Mutex
}

func (gw *Gateway) AddConnection(conn *GatewayConnection) {
	gw.connectionsMutex.Lock()
	gw.connections[conn.session] = conn
	gw.connectionsMutex.Unlock()
}

func (gw *Gateway) RemoveConnection(conn *GatewayConnection) {
	gw.connectionsMutex.Lock()
	delete(gw.connections, conn.session)
	gw.connectionsMutex.Unlock()
}

func (gw *Gateway) Relay(event Event) {
	gw.connectionsMutex.Lock()
	conns := make([]*GatewayConnection, 0, len(gw.connections))
	for _, conn := range gw.connections {
		conns = append(conns, conn)
	}
	gw.connectionsMutex.Unlock()

	go func() {
		for _, conn := range conns {
			conn.Relay(&event)
		}
	}()
}

type GatewayConnection struct {
	ws  *websocket.Conn
	ctx context.Context

	queue chan *Event

	session string
	closing bool

	writeMutex sync.Mutex
}

func (c *GatewayConnection) writeEvent(msg Event) {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	writer, _ := c.ws.NextWriter(websocket.TextMessage)

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	encoder.Encode(msg)

	writer.Close()
}

func (c *GatewayConnection) Relay(event *Event) {
	if len(c.queue) >= cap(c.queue) {
		gwLog.Printf("Queue is full, dropping event: %v", event)
		return
	}

	if !c.Connected() {
		return
	}

	c.queue <- event
}

func (c *GatewayConnection) Connected() bool {
	if c.ws == nil {
		return false
	}

	if c.closing {
		return false
	}

	return true
}

func (c *GatewayConnection) Close() error {
	err := c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second*5),
	)

	if err != nil {
		c.ws.Close()
		return err
	}

	if err := c.ws.SetReadDeadline(time.Now().Add(time.Second * 5)); err != nil {
		c.ws.Close()
		return err
	}

	return nil
}

func (c *GatewayConnection) Run() {
	defer c.ws.Close()

	go func() {
		for {
			select {
			case <-c.ctx.Done():
				c.Close()
				return
			case msg := <-c.queue:
				if msg != nil {
					c.writeEvent(*msg)
				}
			}
		}
	}()

	for c.ctx.Err() == nil && !c.closing {
		// Inbound frames carry nothing; a read error means the client left
		if _, _, err := c.ws.NextReader(); err != nil {
			c.closing = true
			break
		}
	}
}

func HandleGatewayConnection(ctx context.Context, conn *websocket.Conn) {
	gwLog.Printf("Connection from %s", conn.RemoteAddr().String())

	c := &GatewayConnection{
		ws:      conn,
		ctx:     ctx,
		session: GetRandom256(),
		queue:   make(chan *Event, 16),
		closing: false,
	}

	gw.AddConnection(c)
	c.Run()
	gw.RemoveConnection(c)

	gwLog.Printf("Connection from %s closed", conn.RemoteAddr().String())
}

func init() {
	gw = &Gateway{
		connectionsMutex: sync.Mutex{},
		connections:      make(map[string]*GatewayConnection),
	}
}
