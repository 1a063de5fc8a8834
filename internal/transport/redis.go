package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"flow-cli/internal/logger"
)

// Side 决定链路订阅与发布的频道方向。
type Side string

const (
	SideWatch Side = "watch"
	SidePhone Side = "phone"
)

// other 返回对端。
func (s Side) other() Side {
	if s == SideWatch {
		return SidePhone
	}
	return SideWatch
}

// Channel 返回 side 端订阅的频道名。
func Channel(prefix string, side Side) string {
	if prefix == "" {
		prefix = "flow"
	}
	return prefix + ":" + string(side)
}

// RedisLink connects two processes over Redis pub/sub. A publish that reaches no
// subscriber is reported as Dropped, the same way the pipe reports loss.
type RedisLink struct {
	client  *redis.Client
	pub     publisher
	pubsub  *redis.PubSub
	side    Side
	sendTo  string
	timeout time.Duration
	out     *outbox
	in      *inbox
	log     *logger.LogEntry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// publisher 是 publishLoop 用到的 redis.Client 子集。
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisOptions 为 Redis 链路参数。
type RedisOptions struct {
	URL     string
	Prefix  string
	Side    Side
	Timeout time.Duration
	Outbox  int
	Inbox   int
}

// DialRedis 连接 Redis 并订阅本端频道；订阅确认后才返回。
func DialRedis(ctx context.Context, opts RedisOptions) (*RedisLink, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisLink(ctx, client, opts)
}

func newRedisLink(ctx context.Context, client *redis.Client, opts RedisOptions) (*RedisLink, error) {
	if opts.Side == "" {
		opts.Side = SideWatch
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	listen := Channel(opts.Prefix, opts.Side)
	pubsub := client.Subscribe(ctx, listen)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("subscribe %s: %w", listen, err)
	}

	log := logger.Named("transport").WithFields(logger.Fields{
		"link":   "redis:" + string(opts.Side),
		"listen": listen,
	})
	runCtx, cancel := context.WithCancel(context.Background())
	l := &RedisLink{
		client:  client,
		pub:     client,
		pubsub:  pubsub,
		side:    opts.Side,
		sendTo:  Channel(opts.Prefix, opts.Side.other()),
		timeout: opts.Timeout,
		out:     newOutbox(opts.Outbox, log),
		in:      newInbox(opts.Inbox),
		log:     log,
		ctx:     runCtx,
		cancel:  cancel,
	}
	l.wg.Add(2)
	go l.publishLoop()
	go l.receiveLoop()
	log.Info("redis link ready")
	return l, nil
}

func (l *RedisLink) Send(p Payload) {
	if err := l.out.offer(p.Clone()); err != nil {
		l.reportDropped(err)
	}
}

func (l *RedisLink) Events() <-chan Event {
	return l.in.events()
}

func (l *RedisLink) Close() error {
	var err error
	l.once.Do(func() {
		l.cancel()
		l.out.close()
		err = l.pubsub.Close()
		l.wg.Wait()
		l.in.close()
		if cerr := l.client.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

func (l *RedisLink) publishLoop() {
	defer l.wg.Done()
	for {
		p, err := l.out.receive(l.ctx)
		if err != nil {
			return
		}
		l.publish(p)
	}
}

// publish 发布一条消息；没有订阅者也算丢失。
func (l *RedisLink) publish(p Payload) {
	data, err := Encode(p)
	if err != nil {
		l.reportDropped(err)
		return
	}
	ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
	receivers, err := l.pub.Publish(ctx, l.sendTo, data).Result()
	cancel()
	switch {
	case err != nil:
		l.reportDropped(err)
	case receivers == 0:
		l.reportDropped(ErrNoReceiver)
	default:
		l.log.WithFields(logger.Fields{"channel": l.sendTo, "receivers": receivers}).Debug("published payload")
	}
}

func (l *RedisLink) receiveLoop() {
	defer l.wg.Done()
	ch := l.pubsub.Channel()
	for {
		select {
		case <-l.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			l.accept(msg.Payload)
		}
	}
}

// accept 投递一条入站消息；无法解码或本端积压时以 Dropped 告知本端。
func (l *RedisLink) accept(raw string) {
	p, err := Decode([]byte(raw))
	if err != nil {
		l.log.WithError(err).Warn("discarding undecodable message")
		l.reportDropped(ErrUndecodable)
		return
	}
	if err := l.in.deliver(Message(p)); err != nil {
		l.reportDropped(err)
	}
}

func (l *RedisLink) reportDropped(err error) {
	l.log.WithField("reason", err.Error()).Warn("message dropped")
	if derr := l.in.notify(Dropped(err.Error())); derr != nil {
		l.log.WithField("reason", derr.Error()).Warn("drop notice lost")
	}
}
