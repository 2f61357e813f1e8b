package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type TimeTicker struct {
	stop chan struct{}
	C    <-chan time.Time
}

// NewTimeTicker creates a TimeTicker that notifies based on rotateHours parameter.
// if rotateHours is 1 and current time is 11:32 it means that the ticker will tick at 12:00
// if rotateHours is 2 and current time is 09:12 means that the ticker will tick at 11:00
// specially, if rotateHours is 0, then no rotation
func NewTimeTicker(rotateHours uint) *TimeTicker {
	ch := make(chan time.Time)
	tt := TimeTicker{
		stop: make(chan struct{}),
		C:    ch,
	}

	if rotateHours > 0 {
		tt.startTicker(ch, rotateHours)
	}

	return &tt
}

func (tt *TimeTicker) Stop() {
	close(tt.stop)
}

func (tt *TimeTicker) startTicker(ch chan time.Time, rotateHours uint) {
	go func() {
		nextRotationHour := getNextRotationHour(time.Now(), rotateHours)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				if t.Hour() == nextRotationHour {
					select {
					case ch <- t:
					case <-tt.stop:
						return
					}
					nextRotationHour = getNextRotationHour(time.Now(), rotateHours)
				}
			case <-tt.stop:
				return
			}
		}
	}()
}

func getNextRotationHour(now time.Time, delta uint) int {
	return now.Add(time.Hour * time.Duration(delta)).Hour()
}

// AsyncFileWriter buffers log lines in memory and writes them to a size
// rotated file from a single goroutine. Lines are dropped when the buffer is
// full.
type AsyncFileWriter struct {
	out *lumberjack.Logger

	wg         sync.WaitGroup
	started    int32
	buf        chan []byte
	stop       chan struct{}
	timeTicker *TimeTicker
}

// NewAsyncFileWriter creates a writer for filePath buffering up to bufLines
// lines. The file is rotated once it exceeds maxSizeMB megabytes, keeping
// maxBackups old files, and additionally every rotateHours hours.
func NewAsyncFileWriter(filePath string, bufLines int64, maxSizeMB int, maxBackups int, rotateHours uint) *AsyncFileWriter {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		panic(fmt.Sprintf("get file path of logger error. filePath=%s, err=%s", filePath, err))
	}

	return &AsyncFileWriter{
		out: &lumberjack.Logger{
			Filename:   absFilePath,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			LocalTime:  true,
		},
		buf:        make(chan []byte, bufLines),
		stop:       make(chan struct{}),
		timeTicker: NewTimeTicker(rotateHours),
	}
}

func (w *AsyncFileWriter) Start() error {
	if !atomic.CompareAndSwapInt32(&w.started, 0, 1) {
		return errors.New("logger has already been started")
	}

	w.wg.Add(1)
	go func() {
		defer func() {
			atomic.StoreInt32(&w.started, 0)

			w.flushBuffer()
			w.wg.Done()
		}()

		for {
			select {
			case msg, ok := <-w.buf:
				if !ok {
					fmt.Fprintln(os.Stderr, "buf channel has been closed.")
					return
				}
				w.SyncWrite(msg)
			case <-w.stop:
				return
			}
		}
	}()
	return nil
}

func (w *AsyncFileWriter) flushBuffer() {
	for {
		select {
		case msg := <-w.buf:
			w.SyncWrite(msg)
		default:
			return
		}
	}
}

func (w *AsyncFileWriter) SyncWrite(msg []byte) {
	w.rotateFile()
	if _, err := w.out.Write(msg); err != nil {
		fmt.Fprintf(os.Stderr, "write log file error. err=%s\n", err)
	}
}

func (w *AsyncFileWriter) rotateFile() {
	select {
	case <-w.timeTicker.C:
		if err := w.out.Rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "rotate log file error. err=%s\n", err)
		}
	default:
	}
}

// Stop drains the buffer and closes the file.
func (w *AsyncFileWriter) Stop() {
	w.stop <- struct{}{}
	w.wg.Wait()

	w.timeTicker.Stop()
	w.out.Close()
}

func (w *AsyncFileWriter) Write(msg []byte) (n int, err error) {
	// The caller may reuse msg once Write returns.
	buf := make([]byte, len(msg))
	copy(buf, msg)

	select {
	case w.buf <- buf:
	default:
	}
	return len(msg), nil
}
