package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/bronze/logger"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Logger", func() {
	var (
		l         *logger.LoggerImpl
		logOutput *bytes.Buffer
	)

	BeforeEach(func() {
		l = logger.NewJsonLogger("test-service", "debug", true)
		logOutput = bytes.NewBufferString("")
		l.SetOutput(logOutput)
	})

	decode := func() map[string]interface{} {
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		return actual
	}

	It("Should have `test-service` as service name", func() {
		l.Info("Testing")
		Expect(decode()["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		l.Info("Testing")
		Expect(decode()["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		l.Warn("Testing")
		Expect(decode()["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		l.Error("Testing")
		actual := decode()
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		l.Info("Testing")
		Expect(decode()["msg"]).To(Equal("Testing"))
	})

	It("Should panic with a logrus entry carrying the message", func() {
		var recovered interface{}
		func() {
			defer func() { recovered = recover() }()
			l.Panic("boom")
		}()
		entry, ok := recovered.(*logrus.Entry)
		Expect(ok).To(BeTrue())
		Expect(entry.Message).To(Equal("boom"))
	})
})
