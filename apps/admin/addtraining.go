package main

import (
	"fmt"
	"strings"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
)

var trainingTypes = []admission.TrainingType{
	admission.TypeBachelor, admission.TypeMaster, admission.TypeAggregation,
	admission.TypeCertificate, admission.TypeUniversityCertificate, admission.TypeDoctorate,
}

// addTraining updates or creates an admission.Training
func (cli *commandLine) addTraining(acronym, title, typ, entity, campus string, year int) error {
	trainingType := admission.TrainingType(strings.ToUpper(core.CleanString(typ)))
	if !trainingType.In(trainingTypes) {
		return fmt.Errorf("unknown training type %q", typ)
	}

	return cli.trainings.AddTraining(admission.Training{
		Acronym:          strings.ToUpper(core.CleanString(acronym)),
		Year:             year,
		Title:            core.CleanString(title),
		Type:             trainingType,
		ManagementEntity: strings.ToUpper(core.CleanString(entity)),
		Campus:           core.CleanString(campus),
	})
}
