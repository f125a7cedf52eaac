package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/activecm/rita-flow/pkg/flow"
	"github.com/activecm/rita-flow/pkg/threat"

	log "github.com/sirupsen/logrus"
)

type (
	//DetectorFailure records a panic raised inside a detector
	DetectorFailure struct {
		Detector threat.Type
		Cause    interface{}
	}

	//job assigns a detector to the result slot it writes to
	job struct {
		slot     int
		detector Detector
	}

	//outcome is the result of one detector run
	outcome struct {
		threats []threat.Threat
		err     error
		elapsed time.Duration
	}

	//runner executes detectors over a shared, read only flow list. Every
	//job writes only to its own slot in results.
	runner struct {
		records        []flow.Record
		log            *log.Logger
		results        []outcome
		doneCallback   func(threat.Type, time.Duration) // called after every detector finishes
		closedCallback func()                           // called when .close() is called and every detector has finished
		jobChannel     chan job
		jobWg          sync.WaitGroup
	}
)

func (f *DetectorFailure) Error() string {
	return fmt.Sprintf("%s detector failed: %v", f.Detector, f.Cause)
}

// newRunner creates a runner with one result slot per detector
func newRunner(records []flow.Record, slots int, logger *log.Logger,
	doneCallback func(threat.Type, time.Duration), closedCallback func()) *runner {
	return &runner{
		records:        records,
		log:            logger,
		results:        make([]outcome, slots),
		doneCallback:   doneCallback,
		closedCallback: closedCallback,
		jobChannel:     make(chan job),
	}
}

// collect queues a detector for execution
func (r *runner) collect(j job) {
	r.jobChannel <- j
}

// close waits for the queued detectors to finish
func (r *runner) close() {
	close(r.jobChannel)
	r.jobWg.Wait()
	r.closedCallback()
}

// start kicks off a new worker thread
func (r *runner) start() {
	r.jobWg.Add(1)
	go func() {
		for j := range r.jobChannel {
			begin := time.Now()
			threats, err := r.run(j.detector)
			elapsed := time.Since(begin)

			r.results[j.slot] = outcome{threats: threats, err: err, elapsed: elapsed}
			if err != nil {
				r.log.WithFields(log.Fields{
					"detector": j.detector.Type(),
					"error":    err.Error(),
				}).Error("Detector failed, continuing without its results")
			} else {
				r.log.WithFields(log.Fields{
					"detector": j.detector.Type(),
					"threats":  len(threats),
					"elapsed":  elapsed.String(),
				}).Debug("Detector finished")
			}
			r.doneCallback(j.detector.Type(), elapsed)
		}
		r.jobWg.Done()
	}()
}

// run executes a detector, converting a panic into a DetectorFailure
func (r *runner) run(d Detector) (threats []threat.Threat, err error) {
	defer func() {
		if cause := recover(); cause != nil {
			threats = nil
			err = &DetectorFailure{Detector: d.Type(), Cause: cause}
		}
	}()
	return d.Threats(r.records), nil
}
