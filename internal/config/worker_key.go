package config

type WorkerKeyStruct struct {
	PurgeStorageQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PurgeStorageQueue: "purge_storage_queue",
}
