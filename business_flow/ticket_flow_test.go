package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/models"
	testutil "github.com/servicosdigitais/plataforma/testing"
	"github.com/servicosdigitais/plataforma/utils"
)

type ticketEnv struct {
	fixtures *testutil.TestFixtures
	accounts *testutil.FakeAccountRepository
	tickets  *testutil.FakeTicketRepository
	clock    *testutil.ManualClock
	flow     TicketFlow
}

func newTicketEnv(t *testing.T) *ticketEnv {
	t.Helper()

	accounts := testutil.NewFakeAccountRepository()
	types := testutil.NewFakeAccountTypeRepository()
	ticketRepo := testutil.NewFakeTicketRepository()
	fixtures := testutil.NewTestFixtures(accounts, types)
	clock := testutil.NewManualClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	flow := NewTicketFlow(ticketRepo, accounts, nil, clock)
	return &ticketEnv{
		fixtures: fixtures,
		accounts: accounts,
		tickets:  ticketRepo,
		clock:    clock,
		flow:     flow,
	}
}

func (env *ticketEnv) openTicket(t *testing.T, accountID uint, subject string) *dto.TicketDTO {
	t.Helper()
	ticket, err := env.flow.CreateTicket(context.Background(), accountID, &dto.CreateTicketRequest{
		Subject: subject,
		Message: "Preciso de ajuda com meu cadastro.",
	}, NewClientMetadata("10.0.0.1", "test"))
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketDefaultsAndValidation(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	requester := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	created, err := env.flow.CreateTicket(ctx, requester.ID, &dto.CreateTicketRequest{
		Subject: "  Cadastro pendente  ",
		Message: "  Meu cadastro segue em análise?  ",
	}, metadata)
	require.NoError(t, err)
	assert.Equal(t, models.TicketCategoryQuestion, created.Category)
	assert.Equal(t, models.TicketPriorityNormal, created.Priority)
	assert.Equal(t, models.TicketStatusOpen, created.Status)
	assert.Equal(t, "Cadastro pendente", created.Subject)
	assert.Equal(t, "Meu cadastro segue em análise?", created.Message)
	assert.NotEmpty(t, created.UUID)
	assert.NotEmpty(t, created.CorrelationID)
	assert.False(t, created.RepliedByAdmin)

	_, err = env.flow.CreateTicket(ctx, requester.ID, &dto.CreateTicketRequest{
		Subject: "",
		Message: "sem assunto",
	}, metadata)
	assert.Error(t, err)

	_, err = env.flow.CreateTicket(ctx, requester.ID, &dto.CreateTicketRequest{
		Subject:  "Assunto",
		Message:  "mensagem",
		Category: "billing",
	}, metadata)
	assert.Error(t, err)

	_, err = env.flow.CreateTicket(ctx, requester.ID, &dto.CreateTicketRequest{
		Subject:  "Assunto",
		Message:  "mensagem",
		Priority: "urgent",
	}, metadata)
	assert.Error(t, err)
}

func TestReplyTicketOwnerOnly(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	stranger := env.fixtures.CreateIndividual("outra@example.com.br", "12345678909")
	ticket := env.openTicket(t, owner.ID, "Acesso bloqueado")

	_, err := env.flow.ReplyTicket(ctx, stranger.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "oi"}, metadata)
	assert.ErrorIs(t, err, ErrTicketAccessDenied)

	_, err = env.flow.ReplyTicket(ctx, owner.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "   "}, metadata)
	assert.Error(t, err)

	reply, err := env.flow.ReplyTicket(ctx, owner.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "Alguma novidade?"}, metadata)
	require.NoError(t, err)
	assert.Equal(t, ticket.CorrelationID, reply.CorrelationID)
	assert.NotEqual(t, ticket.UUID, reply.UUID)
	assert.Equal(t, ticket.Subject, reply.Subject)
	assert.Equal(t, models.TicketStatusOpen, reply.Status)
}

func TestReplyTicketRejectsClosedConversation(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	ticket := env.openTicket(t, owner.ID, "Problema resolvido")

	require.NoError(t, env.flow.CloseTicket(ctx, owner.ID, ticket.UUID, false))

	_, err := env.flow.ReplyTicket(ctx, owner.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "voltou a acontecer"}, metadata)
	require.Error(t, err)
	var bizErr *BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, "TICKET_CLOSED", bizErr.Code)
}

func TestReplyReopensAnsweredConversation(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	ticket := env.openTicket(t, owner.ID, "Dúvida sobre taxas")

	_, err := env.flow.AdminReplyTicket(ctx, admin.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "Taxas constam no contrato."}, metadata)
	require.NoError(t, err)

	_, err = env.flow.ReplyTicket(ctx, owner.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "Não encontrei no contrato."}, metadata)
	require.NoError(t, err)

	origin, err := env.tickets.ByUUID(ctx, ticket.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, origin.Status)
}

func TestAdminReplyMarksConversationAnswered(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	ticket := env.openTicket(t, owner.ID, "Como altero meu e-mail?")

	reply, err := env.flow.AdminReplyTicket(ctx, admin.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "Pelo menu de perfil."}, metadata)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusAnswered, reply.Status)
	assert.True(t, reply.RepliedByAdmin)
	require.NotNil(t, reply.RespondedAt)
	assert.Equal(t, owner.ID, reply.AccountID)

	origin, err := env.tickets.ByUUID(ctx, ticket.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusAnswered, origin.Status)
	assert.True(t, utils.IsTrue(origin.RepliedByAdmin))
	require.NotNil(t, origin.ResponderID)
	assert.Equal(t, admin.ID, *origin.ResponderID)
	require.NotNil(t, origin.RespondedAt)
	assert.Equal(t, env.clock.Now(), *origin.RespondedAt)
}

func TestAdminReplyRequiresAdminAccount(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	ticket := env.openTicket(t, owner.ID, "Dúvida")

	_, err := env.flow.AdminReplyTicket(ctx, owner.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "tentando"}, metadata)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = env.flow.AdminReplyTicket(ctx, 9999, ticket.UUID, &dto.ReplyTicketRequest{Message: "tentando"}, metadata)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCloseTicketOwnerOrAdmin(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	stranger := env.fixtures.CreateIndividual("outra@example.com.br", "12345678909")
	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")

	first := env.openTicket(t, owner.ID, "Primeiro chamado")
	second := env.openTicket(t, owner.ID, "Segundo chamado")

	err := env.flow.CloseTicket(ctx, stranger.ID, first.UUID, false)
	assert.ErrorIs(t, err, ErrTicketAccessDenied)

	require.NoError(t, env.flow.CloseTicket(ctx, owner.ID, first.UUID, false))
	require.NoError(t, env.flow.CloseTicket(ctx, admin.ID, second.UUID, true))

	for _, ticketUUID := range []string{first.UUID, second.UUID} {
		stored, err := env.tickets.ByUUID(ctx, ticketUUID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusClosed, stored.Status)
	}

	err = env.flow.CloseTicket(ctx, owner.ID, "550e8400-e29b-41d4-a716-446655440000", false)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestGetConversationVisibility(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	stranger := env.fixtures.CreateIndividual("outra@example.com.br", "12345678909")
	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	ticket := env.openTicket(t, owner.ID, "Histórico")

	env.clock.Advance(time.Minute)
	_, err := env.flow.ReplyTicket(ctx, owner.ID, ticket.UUID, &dto.ReplyTicketRequest{Message: "segunda mensagem"}, metadata)
	require.NoError(t, err)

	conversation, err := env.flow.GetConversation(ctx, owner.ID, ticket.CorrelationID, false)
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	// Oldest message first
	assert.Equal(t, ticket.UUID, conversation[0].UUID)
	assert.Equal(t, "segunda mensagem", conversation[1].Message)

	_, err = env.flow.GetConversation(ctx, stranger.ID, ticket.CorrelationID, false)
	assert.ErrorIs(t, err, ErrTicketAccessDenied)

	adminView, err := env.flow.GetConversation(ctx, admin.ID, ticket.CorrelationID, true)
	require.NoError(t, err)
	assert.Len(t, adminView, 2)

	_, err = env.flow.GetConversation(ctx, owner.ID, "550e8400-e29b-41d4-a716-446655440000", false)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestListOwnTickets(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	owner := env.fixtures.CreateIndividual("dona@example.com.br", "52998224725")
	other := env.fixtures.CreateIndividual("outra@example.com.br", "12345678909")

	env.openTicket(t, owner.ID, "Chamado A")
	env.openTicket(t, owner.ID, "Chamado B")
	env.openTicket(t, other.ID, "Chamado alheio")

	resp, err := env.flow.ListOwnTickets(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Tickets, 2)
	for _, ticket := range resp.Tickets {
		assert.Equal(t, owner.ID, ticket.AccountID)
	}

	_, err = env.flow.ListOwnTickets(ctx, owner.ID, 0, 20)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = env.flow.ListOwnTickets(ctx, owner.ID, 1, 200)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestAdminListTicketsAttachesRequesters(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	maria := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")
	provider := env.fixtures.CreateProvider("prestador@example.com.br", "11222333000181", true)
	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")

	first := env.openTicket(t, maria.ID, "Orientação")
	env.openTicket(t, provider.ID, "Aprovação pendente")

	_, err := env.flow.AdminReplyTicket(ctx, admin.ID, first.UUID, &dto.ReplyTicketRequest{Message: "Respondido."}, metadata)
	require.NoError(t, err)

	resp, err := env.flow.AdminListTickets(ctx, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	for _, ticket := range resp.Tickets {
		assert.NotEmpty(t, ticket.RequesterName)
		assert.NotEmpty(t, ticket.RequesterEmail)
	}

	answered := models.TicketStatusAnswered
	filtered, err := env.flow.AdminListTickets(ctx, &dto.AdminTicketFilter{Status: &answered}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), filtered.Total)
	for _, ticket := range filtered.Tickets {
		assert.Equal(t, maria.ID, ticket.AccountID)
		assert.Equal(t, "Maria Silva", ticket.RequesterName)
		assert.Equal(t, "maria@example.com.br", ticket.RequesterEmail)
	}

	byAccount, err := env.flow.AdminListTickets(ctx, &dto.AdminTicketFilter{AccountID: &provider.ID}, 1, 20)
	require.NoError(t, err)
	require.Len(t, byAccount.Tickets, 1)
	assert.Equal(t, "Servicos Tecnicos ME", byAccount.Tickets[0].RequesterName)
}
