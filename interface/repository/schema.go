package repository

// Schema creates every table the registry needs. It is safe to run more than once.
const Schema = `
create table if not exists registrars (
	address                                  text primary key,
	realm                                    text not null,
	realm_authority                          text not null,
	governing_token_mint                     text not null,
	voting_config                            jsonb not null,
	deposit_config                           jsonb not null,
	current_reward_amount_per_second         numeric(39, 0) not null,
	last_reward_amount_per_second_rotated_ts bigint not null,
	reward_accrual_ts                        bigint not null,
	reward_index                             numeric(39, 0) not null,
	issued_reward_amount                     numeric(20, 0) not null,
	permanently_locked_amount                numeric(20, 0) not null,
	time_offset                              bigint not null default 0,
	revision                                 bigint not null default 0
);

create table if not exists voters (
	registrar               text not null references registrars (address),
	authority               text not null,
	deposits                jsonb not null,
	reward_index            numeric(39, 0) not null,
	reward_claimable_amount numeric(20, 0) not null,
	revision                bigint not null default 0,
	primary key (registrar, authority)
);

create table if not exists events (
	id          bigserial primary key,
	type        text not null,
	registrar   text not null,
	voter       text not null,
	amount      numeric(20, 0) not null,
	info        jsonb not null,
	timestamp   bigint not null,
	create_time timestamptz not null default now()
);

create index if not exists events_voter_idx on events (registrar, voter, id);

create table if not exists memos (
	key         text primary key,
	memo        jsonb not null,
	update_time timestamptz not null default now()
);
`
