package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexxIT/go2rtc/pkg/rtsp"
)

// ErrNoMedia is returned when the relay answers DESCRIBE without any media,
// i.e. nothing is publishing on the path yet.
var ErrNoMedia = errors.New("no media published")

// MediaInfo describes one published track.
type MediaInfo struct {
	Kind      string   `json:"kind" example:"video" doc:"Media kind"`
	Direction string   `json:"direction" example:"sendonly" doc:"Media direction"`
	Codecs    []string `json:"codecs" example:"[\"H264\"]" doc:"Codec names"`
}

// ProbeResult is the outcome of an RTSP DESCRIBE against the relay.
type ProbeResult struct {
	URL    string      `json:"url"`
	Medias []MediaInfo `json:"medias"`
}

// Probe connects to url and issues DESCRIBE. It is a diagnostic, not a
// readiness handshake: the supervisor never waits on it. Cancelling ctx
// closes the connection so the request does not outlive the call.
func Probe(ctx context.Context, url string) (*ProbeResult, error) {
	type outcome struct {
		res *ProbeResult
		err error
	}

	p := &probe{conn: rtsp.NewClient(url), url: url}
	ch := make(chan outcome, 1)

	go func() {
		res, err := p.describe()
		ch <- outcome{res, err}
	}()

	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		p.abort()
		return nil, ctx.Err()
	}
}

// probe guards the client so abort only closes a dialed connection.
type probe struct {
	conn *rtsp.Conn
	url  string

	mu      sync.Mutex
	dialed  bool
	aborted bool
}

func (p *probe) abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aborted = true
	if p.dialed {
		_ = p.conn.Close()
	}
}

func (p *probe) describe() (*ProbeResult, error) {
	if err := p.conn.Dial(); err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.url, err)
	}
	defer func() { _ = p.conn.Close() }()

	p.mu.Lock()
	aborted := p.aborted
	p.dialed = true
	p.mu.Unlock()
	if aborted {
		return nil, context.Canceled
	}

	if err := p.conn.Describe(); err != nil {
		return nil, fmt.Errorf("describe %s: %w", p.url, err)
	}

	res := &ProbeResult{URL: p.url}
	for _, m := range p.conn.Medias {
		info := MediaInfo{Kind: m.Kind, Direction: m.Direction}
		for _, c := range m.Codecs {
			info.Codecs = append(info.Codecs, c.Name)
		}
		res.Medias = append(res.Medias, info)
	}

	if len(res.Medias) == 0 {
		return res, ErrNoMedia
	}
	return res, nil
}
