// Package scpi implements the instrument adapter for SCPI oscilloscopes with
// a built-in waveform generator (tested against the Agilent InfiniiVision
// 3000-X series). Transports: raw LXI TCP socket or a Prologix GPIB-USB
// controller.
package scpi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bodelab/bodesweep/internal/instrument"
)

// Transport is the raw command/query byte channel under the driver.
type Transport interface {
	Command(cmd string) error
	Query(cmd string) (string, error)
	Close() error
}

// Driver speaks SCPI over a Transport and implements instrument.Adapter.
// After every command it drains :SYSTem:ERRor? so an instrument-rejected
// command surfaces immediately instead of corrupting a later reading.
type Driver struct {
	t Transport
}

// NewDriver wraps an open transport.
func NewDriver(t Transport) *Driver {
	return &Driver{t: t}
}

// command sends one SCPI command and checks the instrument error queue.
func (d *Driver) command(ctx context.Context, cmd string) error {
	if err := ctx.Err(); err != nil {
		return instrument.Errf(cmd, err)
	}
	if err := d.t.Command(cmd); err != nil {
		return instrument.Errf(cmd, err)
	}
	return d.checkErrors(cmd)
}

// query sends one SCPI query, checks the error queue, and returns the reply.
func (d *Driver) query(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", instrument.Errf(cmd, err)
	}
	result, err := d.t.Query(cmd)
	if err != nil {
		return "", instrument.Errf(cmd, err)
	}
	if err := d.checkErrors(cmd); err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// queryFloat runs a query and parses the reply as a float64.
func (d *Driver) queryFloat(ctx context.Context, cmd string) (float64, error) {
	result, err := d.query(ctx, cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(result, 64)
	if err != nil {
		return 0, instrument.Errf(cmd, fmt.Errorf("unparseable reply %q: %w", result, err))
	}
	return v, nil
}

// checkErrors drains the instrument error queue. Any entry other than
// "+0,No error" means the preceding command was rejected.
func (d *Driver) checkErrors(cmd string) error {
	for i := 0; i < 10; i++ {
		result, err := d.t.Query(":SYSTem:ERRor?")
		if err != nil {
			return instrument.Errf(cmd, fmt.Errorf("error queue query failed: %w", err))
		}
		result = strings.TrimSpace(result)
		if result == "" {
			return instrument.Errf(cmd, fmt.Errorf(":SYSTem:ERRor? returned nothing"))
		}
		if strings.HasPrefix(result, "+0,") || strings.HasPrefix(result, "0,") {
			return nil
		}
		log.Warn().Str("command", cmd).Str("instrument_error", result).Msg("Instrument reported command error")
		return instrument.Errf(cmd, fmt.Errorf("instrument error: %s", result))
	}
	return instrument.Errf(cmd, fmt.Errorf("error queue did not drain"))
}

// Identify returns the *IDN? identification string.
func (d *Driver) Identify(ctx context.Context) (string, error) {
	return d.query(ctx, "*IDN?")
}

// ConfigureDefaults clears status and loads the default setup.
func (d *Driver) ConfigureDefaults(ctx context.Context) error {
	if err := d.command(ctx, "*CLS"); err != nil {
		return err
	}
	return d.command(ctx, "*RST")
}

// ConfigureGenerator enables the built-in generator with a sine waveform.
func (d *Driver) ConfigureGenerator(ctx context.Context, freq, amplitude, offset float64) error {
	cmds := []string{
		":WGEN:OUTput 1",
		":WGEN:FUNCtion SIN",
		fmt.Sprintf(":WGEN:VOLTage %.3f", amplitude),
		fmt.Sprintf(":WGEN:FREQuency %.3f", freq),
		fmt.Sprintf(":WGEN:VOLTage:OFFset %.3f", offset),
	}
	for _, cmd := range cmds {
		if err := d.command(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// SetGeneratorFrequency retunes the generator output frequency.
func (d *Driver) SetGeneratorFrequency(ctx context.Context, freq float64) error {
	return d.command(ctx, fmt.Sprintf(":WGEN:FREQuency %.3f", freq))
}

// Autoscale adjusts the scope display to the current waveform.
func (d *Driver) Autoscale(ctx context.Context) error {
	return d.command(ctx, ":AUToscale")
}

// Arm digitizes both channels so subsequent measurements come from one
// acquisition.
func (d *Driver) Arm(ctx context.Context) error {
	cmds := []string{
		":SINGle",
		":ACQuire:TYPE NORMal",
		":DIGitize CHANnel1,CHANnel2",
		":MEASure:SOURce CHANnel1,CHANnel2",
	}
	for _, cmd := range cmds {
		if err := d.command(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// ReadChannelMeasurement measures frequency and Vpp on one channel.
func (d *Driver) ReadChannelMeasurement(ctx context.Context, ch instrument.Channel) (instrument.ChannelReading, error) {
	freq, err := d.queryFloat(ctx, fmt.Sprintf(":MEASure:FREQuency? CHANnel%d", ch))
	if err != nil {
		return instrument.ChannelReading{}, err
	}
	ampl, err := d.queryFloat(ctx, fmt.Sprintf(":MEASure:VPP? CHANnel%d", ch))
	if err != nil {
		return instrument.ChannelReading{}, err
	}
	return instrument.ChannelReading{Frequency: freq, Amplitude: ampl}, nil
}

// ReadPhaseDifference measures the CH2-CH1 phase shift in degrees.
func (d *Driver) ReadPhaseDifference(ctx context.Context) (float64, error) {
	return d.queryFloat(ctx, ":MEASure:PHASe? CHANnel2,CHANnel1")
}

// Close releases the underlying transport.
func (d *Driver) Close() error {
	return d.t.Close()
}
