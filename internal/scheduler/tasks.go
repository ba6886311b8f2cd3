package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskContractReconcile = "contracts.reconcile"

type ContractReconcilePayload struct {
	ContractID string `json:"contractId"`
	FailedStep string `json:"failedStep"`
}

func NewContractReconcileTask(payload ContractReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContractReconcile, data), nil
}

func ParseContractReconcilePayload(task *asynq.Task) (ContractReconcilePayload, error) {
	var payload ContractReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ContractReconcilePayload{}, err
	}
	return payload, nil
}
