package common

import (
	"context"
	"crypto/rand"
	"fmt"
	"hash/crc32"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
)

type VemojiContext struct {
	context.Context
	Cancel     context.CancelFunc
	Subsystems sync.WaitGroup
}

const (
	ErrorCodeInternalError = iota
	ErrorCodeInvalidRequest
	ErrorCodeNotResolved
	ErrorCodeUpstreamFailure
)

type CodedError struct {
	Code    int
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

func NewError(code int, err error) *CodedError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	return &CodedError{
		Code:    code,
		Message: msg,
	}
}

var UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.10; rv:38.0) Gecko/20100101 Firefox/38.0"

func CheckURL(targetURL string) error {
	parsedUrl, err := url.Parse(targetURL)
	if err != nil || parsedUrl.Scheme == "" || parsedUrl.Host == "" || (parsedUrl.Scheme != "http" && parsedUrl.Scheme != "https") {
		return fmt.Errorf("invalid URL: %s", targetURL)
	}
	return nil
}

func CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	return nil
}

func NewLogger(prefix string) *log.Logger {
	prefix = fmt.Sprintf("[%s] ", prefix)
	return log.New(os.Stdout, prefix, 0)
}

func HashCRC32(data string) uint32 {
	return crc32.ChecksumIEEE([]byte(data))
}

func GetRandom128() string {
	data := make([]byte, 16)
	rand.Read(data)
	return fmt.Sprintf("%x", data)
}

func GetRandom256() string {
	return GetRandom128() + GetRandom128()
}
