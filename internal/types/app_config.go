package types

const (
	ConfigKeyRegisterEnabled      = "registerEnabled"
	ConfigKeyWorkerAutoTimeout    = "workerAutoTimeout"
	ConfigKeyWorkerGetNextSubtask = "workerGetNextSubtask"
)

const (
	ConfigTypeBoolean = "boolean"
	ConfigTypeNumber  = "number"
	ConfigTypeString  = "string"
)

// AppConfig holds one runtime policy entry. Values are stored as strings and
// parsed per Type when read.
type AppConfig struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"not null;column:value" json:"value"`
	Type  string `gorm:"not null;column:type" json:"type"`
}

func (AppConfig) TableName() string {
	return "app_config"
}
