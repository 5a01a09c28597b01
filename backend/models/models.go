package models

// All lists every persisted model, parents first, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Participant{},
		&Experiment{},
		&Dataset{},
		&MediaItem{},
		&Activity{},
		&Choice{},
		&ParticipantExperiment{},
		&Assignment{},
		&Result{},
	}
}
