package transport

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"flow-cli/internal/logger"
)

// PipeOptions 控制进程内链路的丢包率与延迟。
type PipeOptions struct {
	DropRate float64
	Latency  time.Duration
	Outbox   int
	Inbox    int
	// Rand 为空时使用全局随机源；测试可注入固定种子。
	Rand *rand.Rand
}

// PipeLink is one end of an in-process watch/phone connection.
type PipeLink struct {
	name string
	opts PipeOptions
	out  *outbox
	in   *inbox
	peer *PipeLink
	log  *logger.LogEntry
	rng  *lockedRand

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPipe 创建一对互联的链路。
func NewPipe(opts PipeOptions) (watch, phone *PipeLink) {
	rng := &lockedRand{r: opts.Rand}
	watch = newPipeLink("watch", opts, rng)
	phone = newPipeLink("phone", opts, rng)
	watch.peer = phone
	phone.peer = watch
	watch.start()
	phone.start()
	return watch, phone
}

func newPipeLink(name string, opts PipeOptions, rng *lockedRand) *PipeLink {
	log := logger.Named("transport").WithField("link", "pipe:"+name)
	ctx, cancel := context.WithCancel(context.Background())
	return &PipeLink{
		name:   name,
		opts:   opts,
		out:    newOutbox(opts.Outbox, log),
		in:     newInbox(opts.Inbox),
		log:    log,
		rng:    rng,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (l *PipeLink) start() {
	l.wg.Add(1)
	go l.pump()
}

// Send 入队后立即返回；无法入队时向本端报告 Dropped。
func (l *PipeLink) Send(p Payload) {
	if err := l.out.offer(p.Clone()); err != nil {
		l.reportDropped(err)
	}
}

func (l *PipeLink) Events() <-chan Event {
	return l.in.events()
}

// Close 停止发送循环并关闭本端事件流。
func (l *PipeLink) Close() error {
	l.once.Do(func() {
		l.cancel()
		l.out.close()
		l.wg.Wait()
		l.in.close()
	})
	return nil
}

func (l *PipeLink) pump() {
	defer l.wg.Done()
	for {
		p, err := l.out.receive(l.ctx)
		if err != nil {
			return
		}
		if l.opts.Latency > 0 {
			timer := time.NewTimer(l.opts.Latency)
			select {
			case <-l.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if l.lost() {
			l.dropBothEnds(ErrLostInRoute)
			continue
		}
		if err := l.peer.in.deliver(Message(p)); err != nil {
			l.dropBothEnds(err)
			continue
		}
		l.log.WithField("payload", p.String()).Debug("delivered payload")
	}
}

func (l *PipeLink) lost() bool {
	if l.opts.DropRate <= 0 {
		return false
	}
	if l.opts.DropRate >= 1 {
		return true
	}
	return l.rng.float64() < l.opts.DropRate
}

// lockedRand 让一对链路共享同一个随机源。
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (lr *lockedRand) float64() float64 {
	if lr == nil || lr.r == nil {
		return rand.Float64()
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.r.Float64()
}

// dropBothEnds 让发送端与接收端都看到同一次丢失。
func (l *PipeLink) dropBothEnds(err error) {
	l.reportDropped(err)
	l.peer.reportDropped(err)
}

func (l *PipeLink) reportDropped(err error) {
	l.log.WithField("reason", err.Error()).Warn("message dropped")
	if derr := l.in.notify(Dropped(err.Error())); derr != nil {
		l.log.WithField("reason", derr.Error()).Warn("drop notice lost")
	}
}
