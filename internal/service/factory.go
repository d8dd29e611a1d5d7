package service

import (
	"fmt"

	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/sirupsen/logrus"
)

type AppServices struct {
	LedgerService *LedgerService
}

// Factory собирает сервисы приложения. publisher может быть nil, тогда события не публикуются.
func Factory(unitOfWork uow.UOW, publisher EventPublisher, l *logrus.Logger) (*AppServices, error) {
	ledgerService, ledgerServiceErr := NewLedgerService(unitOfWork, l)
	if ledgerServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", ledgerServiceErr.Error())
	}

	if publisher != nil {
		ledgerService.SetPublisher(publisher)
	}

	return &AppServices{
		LedgerService: ledgerService,
	}, nil
}
