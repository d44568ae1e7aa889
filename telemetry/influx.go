// Package telemetry optionally mirrors published events into InfluxDB
// so pin activity can be charted next to the rest of the rack.
package telemetry

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"
)

const defaultMeasurement = "stateio_event"
const writeTimeout = 5 * time.Second

// InfluxSink writes one point per published event. Configured from the
// main JSON config file; a nil or un-setup sink is simply skipped.
type InfluxSink struct {
	Host         string
	Organization string
	Bucket       string
	Token        string
	Measurement  string

	client   influxdb2.Client
	writeApi api.WriteAPIBlocking
	ready    bool
}

func (is *InfluxSink) Setup() error {
	if len(is.Host) == 0 || len(is.Bucket) == 0 {
		return errors.New("influx sink needs at least host and bucket")
	}

	if len(is.Measurement) == 0 {
		is.Measurement = defaultMeasurement
	}

	is.client = influxdb2.NewClient(is.Host, is.Token)
	is.writeApi = is.client.WriteAPIBlocking(is.Organization, is.Bucket)
	is.ready = true
	return nil
}

func (is *InfluxSink) Ready() bool {
	return is.ready
}

func (is *InfluxSink) WriteEvent(domain string, index int, typeName, eventName string) error {
	if !is.ready {
		return errors.New("influx sink not ready")
	}

	point := influxdb2.NewPoint(is.Measurement,
		map[string]string{
			"domain": domain,
			"type":   typeName,
		},
		map[string]interface{}{
			"index": index,
			"event": eventName,
		},
		time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	return is.writeApi.WritePoint(ctx, point)
}

func (is *InfluxSink) Close() {
	if is.client != nil {
		is.client.Close()
	}
	is.ready = false
}
