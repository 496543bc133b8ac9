package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tomkapa/sui-patreon-sub001/internal/keyserver"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
)

// shareJob 是一次份额计算任务：请求加上用于送回结果的应答通道。
type shareJob struct {
	ctx       context.Context
	request   *seal.ShareRequest
	chanReply chan *shareJobResult
}

type shareJobResult struct {
	response *seal.ShareResponse
	err      error
}

// ShareServer 是密钥服务器的后台工作单元池。HTTP 接口把份额请求提交进来，
// 由固定数量的工作单元串行消费，避免份额计算被请求洪峰放大。
type ShareServer struct {
	KeyServer  *keyserver.Server
	NumWorkers int // 工作单元数量。创建后不要修改，否则服务器可能无法按预期停止
	wg         sync.WaitGroup
	chanJobs   chan *shareJob
	chanQuit   chan int
	mu         sync.RWMutex
	isStarting bool
	isStarted  bool
	isStopping bool
}

func NewShareServer(keyServer *keyserver.Server, numWorkers int) *ShareServer {
	return &ShareServer{
		KeyServer:  keyServer,
		NumWorkers: numWorkers,
		wg:         sync.WaitGroup{},
		chanJobs:   make(chan *shareJob),
		chanQuit:   make(chan int),
	}
}

// Start 启动份额服务器。持有的主密钥份额必须在启动前装载完毕。
func (s *ShareServer) Start() error {
	log.Infoln("正在启动份额服务器...")

	s.mu.Lock()
	if s.isStarting {
		s.mu.Unlock()
		return fmt.Errorf("份额服务器正在启动")
	} else if s.isStarted {
		s.mu.Unlock()
		return fmt.Errorf("份额服务器已启动")
	}
	s.isStarting = true
	s.mu.Unlock()

	log.Tracef("正在创建 %v 个份额计算工作单元...\n", s.NumWorkers)
	for id := 0; id < s.NumWorkers; id++ {
		s.wg.Add(1)
		go s.createShareServerWorker(id)
	}

	s.mu.Lock()
	s.isStarting = false
	s.isStarted = true
	s.mu.Unlock()
	log.Infoln("份额服务器已启动。")

	return nil
}

// Submit 提交一个份额请求并阻塞等待结果。服务器未启动时直接报错。
func (s *ShareServer) Submit(ctx context.Context, request *seal.ShareRequest) (*seal.ShareResponse, error) {
	s.mu.RLock()
	isStarted := s.isStarted
	s.mu.RUnlock()
	if !isStarted {
		return nil, fmt.Errorf("份额服务器未启动")
	}

	job := &shareJob{
		ctx:       ctx,
		request:   request,
		chanReply: make(chan *shareJobResult, 1),
	}

	select {
	case s.chanJobs <- job:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "份额请求在排队时被取消")
	}

	select {
	case result := <-job.chanReply:
		return result.response, result.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "份额请求在等待结果时被取消")
	}
}

func (s *ShareServer) createShareServerWorker(id int) {
	defer s.wg.Done()

	for {
		select {
		case job := <-s.chanJobs:
			log.Debugf("份额计算工作单元 #%v 收到请求。\n", id)
			response, err := s.KeyServer.ComputeShares(job.ctx, job.request)
			job.chanReply <- &shareJobResult{response: response, err: err}
		case <-s.chanQuit:
			return
		}
	}
}

// Stop 停止份额服务器，不再响应新的份额请求。
//
// 返回：
//   可供调用方阻塞等待的 WaitGroup
func (s *ShareServer) Stop() (*sync.WaitGroup, error) {
	s.mu.Lock()
	if s.isStopping {
		s.mu.Unlock()
		return nil, fmt.Errorf("份额服务器正在停止")
	} else if !s.isStarted {
		s.mu.Unlock()
		return nil, fmt.Errorf("份额服务器已停止")
	}
	s.isStopping = true
	s.mu.Unlock()

	for id := 0; id < s.NumWorkers; id++ {
		s.chanQuit <- 0
	}

	s.mu.Lock()
	s.isStarted = false
	s.isStopping = false
	s.mu.Unlock()

	return &s.wg, nil
}
