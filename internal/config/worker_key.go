package config

type WorkerKeyStruct struct {
	ActivityQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ActivityQueue: "persist_activity_queue",
}
