package proc

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/utils"
)

/**
 * Command describes one external process invocation
 * @property {string} Name - Executable, resolved via PATH when not a path
 * @property {[]string} Args - Arguments
 * @property {string} Dir - Working directory
 * @property {[]string} Env - Full environment in KEY=VALUE form, nil inherits the parent's
 * @property {time.Duration} Timeout - Upper bound on wall-clock duration, 0 disables it
 */
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Chunk is a piece of child output in arrival order.
type Chunk struct {
	Stream Stream
	Data   []byte
}

/**
 * ManagedProcess 受管子进程句柄
 * @property {string} Title - 显示用的名字
 * @description
 * - 退出时由监控协程记录退出码并调用onExit
 * - 输出通过Chunk通道按到达顺序写入sink
 * - 不做任何自动重启
 */
type ManagedProcess struct {
	Title     string
	cmd       *exec.Cmd
	startTime time.Time
	exitTime  time.Time
	exitCode  *int
	exitErr   error
	done      chan struct{} // 进程退出后关闭
	drained   chan struct{} // 两个输出流都读完后关闭
	onExit    func(*ManagedProcess)
	mutex     sync.Mutex
}

/**
 * Spawn a managed child process
 * @param {Command} c - Command to run
 * @param {io.Writer} sink - Receives stdout and stderr chunks
 * @param {func(*ManagedProcess)} onExit - Called once from the watch goroutine after exit, may be nil
 * @returns {*ManagedProcess} Handle of the running process
 * @returns {error} Spawn failure (executable missing, permission denied, bad dir)
 * @description
 * - The child gets its own process group so Kill also reaches its descendants
 */
func Spawn(c Command, sink io.Writer, onExit func(*ManagedProcess)) (*ManagedProcess, error) {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	utils.SetNewPG(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	logger.Infof("Executing command: %s (dir: %s)", c.String(), c.Dir)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start '%s' failed: %w", c.Name, err)
	}

	mp := &ManagedProcess{
		Title:     c.Name,
		cmd:       cmd,
		startTime: time.Now(),
		done:      make(chan struct{}),
		drained:   make(chan struct{}),
		onExit:    onExit,
	}

	chunks := make(chan Chunk, 64)
	var readers sync.WaitGroup
	readers.Add(2)
	go readStream(&readers, stdout, Stdout, chunks)
	go readStream(&readers, stderr, Stderr, chunks)
	go func() {
		readers.Wait()
		close(chunks)
	}()
	go func() {
		for chunk := range chunks {
			if sink != nil {
				sink.Write(chunk.Data)
			}
		}
		close(mp.drained)
	}()
	go mp.watchProcess()

	logger.Infof("Process '%s' started (PID: %d)", mp.Title, mp.Pid())
	return mp, nil
}

func readStream(wg *sync.WaitGroup, r io.ReadCloser, stream Stream, out chan<- Chunk) {
	defer wg.Done()
	defer r.Close()
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			out <- Chunk{Stream: stream, Data: data}
		}
		if err != nil {
			return
		}
	}
}

/**
 * watchProcess 等待进程退出
 * @description
 * - 直接等待os.Process，后代进程持有管道也不会阻塞退出通知
 * - 记录退出码后关闭done，再调用onExit
 */
func (mp *ManagedProcess) watchProcess() {
	state, err := mp.cmd.Process.Wait()

	mp.mutex.Lock()
	mp.exitTime = time.Now()
	if state != nil {
		code := state.ExitCode()
		mp.exitCode = &code
		if !state.Success() {
			err = fmt.Errorf("%s", state.String())
		}
	}
	mp.exitErr = err
	onExit := mp.onExit
	mp.mutex.Unlock()

	if err != nil {
		logger.Warnf("Process '%s' (PID: %d) exited: %v", mp.Title, mp.Pid(), err)
	} else {
		logger.Infof("Process '%s' (PID: %d) exited normally", mp.Title, mp.Pid())
	}
	close(mp.done)
	if onExit != nil {
		onExit(mp)
	}
}

func (mp *ManagedProcess) Pid() int {
	if mp.cmd == nil || mp.cmd.Process == nil {
		return 0
	}
	return mp.cmd.Process.Pid
}

func (mp *ManagedProcess) StartTime() time.Time {
	return mp.startTime
}

// Done is closed once the process has exited.
func (mp *ManagedProcess) Done() <-chan struct{} {
	return mp.done
}

// Drained is closed once both output streams reached EOF.
func (mp *ManagedProcess) Drained() <-chan struct{} {
	return mp.drained
}

func (mp *ManagedProcess) Alive() bool {
	select {
	case <-mp.done:
		return false
	default:
		return true
	}
}

// ExitCode is nil while running; -1 when the process was killed by a signal.
func (mp *ManagedProcess) ExitCode() *int {
	mp.mutex.Lock()
	defer mp.mutex.Unlock()
	return mp.exitCode
}

func (mp *ManagedProcess) ExitTime() time.Time {
	mp.mutex.Lock()
	defer mp.mutex.Unlock()
	return mp.exitTime
}

func (mp *ManagedProcess) Err() error {
	mp.mutex.Lock()
	defer mp.mutex.Unlock()
	return mp.exitErr
}

// Kill force-terminates the process group. Killing an exited process is a no-op.
func (mp *ManagedProcess) Kill() error {
	if !mp.Alive() {
		return nil
	}
	if err := utils.KillProcessGroup(mp.Pid()); err != nil {
		logger.Errorf("Failed to kill process '%s' (PID: %d): %v", mp.Title, mp.Pid(), err)
		return err
	}
	return nil
}
