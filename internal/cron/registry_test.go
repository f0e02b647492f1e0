package cron

import "testing"

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	a := &countingJob{name: "a"}
	b := &countingJob{name: "b"}
	r := NewRegistry(a)
	r.Register(nil)
	r.Register(b)

	jobs := r.Jobs()
	if len(jobs) != 2 || jobs[0] != a || jobs[1] != b {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if r.Jobs()[0] == nil {
		t.Fatal("registry slice leaked to caller")
	}
}
