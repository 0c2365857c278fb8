package eventloop

import (
	"io"
	"os/exec"
	"sync"
)

// Process is a spawned child process bound to a Loop: stdout bytes
// arrive via onReceived, exit status and signal via onExit (firing
// once).
type Process struct {
	loop *Loop
	path string
	args []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	onReceived func(buf []byte)
	onExit     func(exitStatus int64, signal int)

	mu       sync.Mutex
	exited   bool
	detached bool
}

// NewProcess creates a Process bound to loop for the given argv. It is
// not started until Spawn is called.
func NewProcess(loop *Loop, path string, args ...string) *Process {
	return &Process{loop: loop, path: path, args: args}
}

func (p *Process) OnReceived(f func(buf []byte))               { p.onReceived = f }
func (p *Process) OnExit(f func(exitStatus int64, signal int)) { p.onExit = f }

// Spawn starts the child process and begins streaming its stdout to
// onReceived on the loop goroutine.
func (p *Process) Spawn() error {
	p.cmd = exec.Command(p.path, p.args...)

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	p.stdin = stdin
	p.stdout = stdout

	if err := p.cmd.Start(); err != nil {
		return err
	}

	// waitLoop starts only after stdout hits EOF: Wait closes the pipe,
	// and onExit must be posted after the last onReceived.
	readDone := make(chan struct{})
	go func() {
		p.readLoop()
		close(readDone)
	}()
	go func() {
		<-readDone
		p.waitLoop()
	}()
	return nil
}

func (p *Process) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := p.stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.loop.Post(func() {
				if p.onReceived != nil {
					p.onReceived(chunk)
				}
			})
		}
		if err != nil {
			return
		}
	}
}

func (p *Process) waitLoop() {
	err := p.cmd.Wait()

	var exitStatus int64
	var signal int
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitStatus = int64(exitErr.ExitCode())
		} else {
			exitStatus = -1
		}
	}

	p.loop.Post(func() {
		p.mu.Lock()
		detached := p.detached
		p.exited = true
		p.mu.Unlock()
		if detached {
			return
		}
		if p.onExit != nil {
			p.onExit(exitStatus, signal)
		}
	})
}

// Write sends bytes to the process's stdin, used by the confirm-dialog
// and input-emittor wrappers to push command bytes down their pipes.
func (p *Process) Write(b []byte) (int, error) {
	if p.stdin == nil {
		return 0, io.ErrClosedPipe
	}
	return p.stdin.Write(b)
}

// Detach clears the onExit callback and lets the process run to
// completion unobserved, used when a Machine tears down mid-copy.
func (p *Process) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached = true
	p.onExit = nil
}

// Kill terminates the process immediately.
func (p *Process) Kill() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}
