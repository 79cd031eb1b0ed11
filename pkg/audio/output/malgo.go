// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo, draining transfer halves from a ring in the device callback
package output

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

// ringMillis is the device-side buffering behind the transfer engine. It
// holds the engine's lead plus at least one device period.
const ringMillis = 2 * deviceLeadMillis

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	*engine

	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	started    bool
	sampleRate int
	channels   int

	// Ring buffer for callback-based playback
	ringBuffer *RingBuffer
}

// NewMalgo creates a new Malgo output
func NewMalgo(log logrus.FieldLogger) *Malgo {
	m := &Malgo{}
	m.engine = newEngine(m, log)
	return m
}

// Open initializes the output device with specified format
func (m *Malgo) Open(sampleRate, channels int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If already initialized with same format, reuse
	if m.device != nil && m.sampleRate == sampleRate && m.channels == channels {
		m.log.Debug("Audio output already initialized with same format, reusing device")
		m.setPacing(devicePacing(sampleRate, channels))
		m.setOpen(true)
		return nil
	}

	// If format changed, reinitialize
	if m.device != nil {
		m.log.Infof("Format change detected (%dHz/%dch -> %dHz/%dch), reinitializing device",
			m.sampleRate, m.channels, sampleRate, channels)
		m.closeDevice()
	}

	// Create malgo context if needed
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	ringBytes := sampleRate * channels * 2 * ringMillis / 1000
	m.ringBuffer = NewRingBuffer(max(ringBytes, 4))

	// Configure device
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	ring := m.ringBuffer
	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			ring.Read(pOutputSample[:int(frameCount)*channels*2])
		},
	}

	// Initialize device
	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.device = device
	m.started = false
	m.sampleRate = sampleRate
	m.channels = channels
	m.setPacing(devicePacing(sampleRate, channels))
	m.setOpen(true)

	m.log.WithFields(logrus.Fields{"rate": sampleRate, "channels": channels}).Info("Audio output initialized (malgo/S16)")

	return nil
}

func (m *Malgo) prepare(int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ringBuffer.Reset()
	return m.startDevice()
}

// write blocks until the device callback has made room for p
func (m *Malgo) write(p []byte) error {
	_, err := m.ringBuffer.Write(p)
	return err
}

func (m *Malgo) interrupt() {
	m.ringBuffer.Close()
}

func (m *Malgo) hold(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if paused {
		m.stopDevice()
		return
	}
	if err := m.startDevice(); err != nil {
		m.log.WithError(err).Error("Failed to restart device")
	}
}

// startDevice must hold m.mu
func (m *Malgo) startDevice() error {
	if m.device == nil || m.started {
		return nil
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	m.started = true
	return nil
}

// stopDevice must hold m.mu
func (m *Malgo) stopDevice() {
	if m.device == nil || !m.started {
		return
	}
	if err := m.device.Stop(); err != nil {
		m.log.WithError(err).Warn("Device stop error")
	}
	m.started = false
}

// Close releases output resources
func (m *Malgo) Close() error {
	if err := m.Stop(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			m.log.WithError(err).Warn("malgo context uninit error")
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	m.setOpen(false)
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device != nil {
		m.stopDevice()
		m.device.Uninit()
		m.device = nil
	}
}
