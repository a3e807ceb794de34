package element

import "testing"

func TestHashByKeyIsStable(t *testing.T) {
	var p HashByKey
	key := []byte("x")
	first := p.Partition(key, 0, 3)
	for i := 0; i < 100; i++ {
		if got := p.Partition(key, uint64(i), 3); got != first {
			t.Fatalf("hash(%q, 3) = %d on call %d, want %d (stable across invocations)", key, got, i, first)
		}
	}
}

func TestHashByKeyAllHundredSameTask(t *testing.T) {
	var p HashByKey
	key := []byte("x")
	want := p.Partition(key, 0, 3)
	for i := 0; i < 100; i++ {
		if got := p.Partition(key, uint64(i), 3); got != want {
			t.Fatalf("record %d: got task %d, want %d", i, got, want)
		}
	}
}

func TestTaskIDValid(t *testing.T) {
	cases := []struct {
		id   TaskID
		want bool
	}{
		{TaskID{JobID: "j", TaskNumber: 0, NumTasks: 3}, true},
		{TaskID{JobID: "j", TaskNumber: 2, NumTasks: 3}, true},
		{TaskID{JobID: "j", TaskNumber: 3, NumTasks: 3}, false},
		{TaskID{JobID: "j", TaskNumber: 0, NumTasks: 0}, false},
	}
	for _, c := range cases {
		if got := c.id.Valid(); got != c.want {
			t.Errorf("%+v.Valid() = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestInputSplitCloneIsIndependentAndNotConnecting(t *testing.T) {
	orig := InputSplit{Index: 0, Properties: map[string]string{"topic": "t", "partition": "0"}, CreateConnection: true}
	clone := orig.Clone(2)

	if clone.CreateConnection {
		t.Fatal("replicated split must have CreateConnection=false")
	}
	clone.Properties["topic"] = "mutated"
	if orig.Properties["topic"] != "t" {
		t.Fatal("clone must not alias the original property bag")
	}
}
